package services

import (
	"fmt"
	"time"

	"hope-backend/db/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const adultAgeYears = 18

// PopulationCountService recomputes the household-level aggregate population
// fields (counts by age/sex band) from the household's individuals.
type PopulationCountService struct {
	DB *gorm.DB
}

func NewPopulationCountService(db *gorm.DB) *PopulationCountService {
	return &PopulationCountService{DB: db}
}

func (ps *PopulationCountService) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ps.DB
}

// RecalculateForHouseholds refreshes the stored counts for the given
// households, typically all pending households of one import batch.
func (ps *PopulationCountService) RecalculateForHouseholds(tx *gorm.DB, householdIDs []uuid.UUID) error {
	if len(householdIDs) == 0 {
		return nil
	}

	conn := ps.conn(tx)
	now := time.Now()

	for _, householdID := range householdIDs {
		var individuals []models.Individual
		if err := conn.
			Where("household_id = ? AND withdrawn = false AND duplicate = false", householdID).
			Find(&individuals).Error; err != nil {
			return fmt.Errorf("failed to load individuals for household %s: %w", householdID, err)
		}

		counts := countByAgeAndSex(individuals, now)

		if err := conn.Model(&models.Household{}).
			Where("id = ?", householdID).
			Updates(map[string]interface{}{
				"size":                  counts.size,
				"female_children_count": counts.femaleChildren,
				"male_children_count":   counts.maleChildren,
				"female_adults_count":   counts.femaleAdults,
				"male_adults_count":     counts.maleAdults,
				"children_count":        counts.femaleChildren + counts.maleChildren,
			}).Error; err != nil {
			return fmt.Errorf("failed to update counts for household %s: %w", householdID, err)
		}
	}

	return nil
}

type populationCounts struct {
	size           int
	femaleChildren int
	maleChildren   int
	femaleAdults   int
	maleAdults     int
}

func countByAgeAndSex(individuals []models.Individual, asOf time.Time) populationCounts {
	var counts populationCounts
	counts.size = len(individuals)

	for _, ind := range individuals {
		adult := true
		if ind.BirthDate != nil {
			adult = ageInYears(*ind.BirthDate, asOf) >= adultAgeYears
		}

		switch {
		case ind.Sex == models.FemaleSex && adult:
			counts.femaleAdults++
		case ind.Sex == models.FemaleSex:
			counts.femaleChildren++
		case ind.Sex == models.MaleSex && adult:
			counts.maleAdults++
		case ind.Sex == models.MaleSex:
			counts.maleChildren++
		}
	}

	return counts
}

func ageInYears(birthDate, asOf time.Time) int {
	years := asOf.Year() - birthDate.Year()
	if asOf.Month() < birthDate.Month() ||
		(asOf.Month() == birthDate.Month() && asOf.Day() < birthDate.Day()) {
		years--
	}
	return years
}
