package handlers

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

func jsonUint(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func mustDate(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}
