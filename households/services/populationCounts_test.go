package services

import (
	"testing"
	"time"

	"hope-backend/db/models"

	"github.com/stretchr/testify/assert"
)

func birthDate(years int, asOf time.Time) *time.Time {
	d := asOf.AddDate(-years, 0, -1)
	return &d
}

func TestCountByAgeAndSex(t *testing.T) {
	asOf := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	individuals := []models.Individual{
		{Sex: models.FemaleSex, BirthDate: birthDate(30, asOf)},
		{Sex: models.FemaleSex, BirthDate: birthDate(5, asOf)},
		{Sex: models.MaleSex, BirthDate: birthDate(17, asOf)},
		{Sex: models.MaleSex, BirthDate: birthDate(18, asOf)},
		{Sex: models.MaleSex, BirthDate: nil}, // unknown age counts as adult
	}

	counts := countByAgeAndSex(individuals, asOf)

	assert.Equal(t, 5, counts.size)
	assert.Equal(t, 1, counts.femaleAdults)
	assert.Equal(t, 1, counts.femaleChildren)
	assert.Equal(t, 2, counts.maleAdults)
	assert.Equal(t, 1, counts.maleChildren)
}

func TestAgeInYears_BirthdayBoundary(t *testing.T) {
	asOf := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	dayBefore := time.Date(2008, 8, 2, 0, 0, 0, 0, time.UTC)
	onTheDay := time.Date(2008, 8, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 17, ageInYears(dayBefore, asOf))
	assert.Equal(t, 18, ageInYears(onTheDay, asOf))
}
