package cache

import (
	"fmt"

	"github.com/bobmcallan/heritage/internal/models"
)

type keyset struct{}

// Keys derives cache keys from operation name and parameters.
var Keys keyset

// Portfolio is the key of GetPortfolio(userID).
func (keyset) Portfolio(userID string) string {
	return fmt.Sprintf("portfolio:%s", userID)
}

// HeritageEvolution is the key of GetMonthlyHeritageEvolution(userID, months).
func (keyset) HeritageEvolution(userID string, months int) string {
	return fmt.Sprintf("heritage:%s:%d", userID, months)
}

// InvestmentEvolution is the key of GetMonthlyInvestmentEvolution(userID, months).
func (keyset) InvestmentEvolution(userID string, months int) string {
	return fmt.Sprintf("investment:%s:%d", userID, months)
}

// ForUser lists every key that can hold a result derived from userID's transactions.
func (k keyset) ForUser(userID string) []string {
	keys := []string{k.Portfolio(userID)}
	for _, m := range models.AllowedMonths {
		keys = append(keys, k.HeritageEvolution(userID, m), k.InvestmentEvolution(userID, m))
	}
	return keys
}
