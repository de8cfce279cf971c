package services

import "fmt"

func formatFare(amount float64, currency string) string {
	return fmt.Sprintf("%.2f %s", amount, currency)
}
