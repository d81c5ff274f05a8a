package domain

import (
	"math"
	"time"
)

// Product описывает товар каталога. Корзина и заказ ссылаются на него,
// но не владеют им; единственное изменяемое здесь поле — остаток на складе.
type Product struct {
	ID   string
	Name string
	// AvailableQty — текущий остаток; инвариант: всегда >= 0.
	AvailableQty int32
	// PriceMinor — базовая цена за единицу в минимальных денежных единицах.
	PriceMinor int64
	// DiscountPct — скидка в процентах от базовой цены.
	DiscountPct float64
	// SpecialPriceMinor — цена после скидки; именно она фиксируется в корзине.
	SpecialPriceMinor int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SpecialPrice вычисляет цену со скидкой, округляя до ближайшей минимальной единицы.
func SpecialPrice(priceMinor int64, discountPct float64) int64 {
	if discountPct <= 0 {
		return priceMinor
	}
	return int64(math.Round(float64(priceMinor) * (1 - discountPct/100)))
}

// Validate проверяет корректность полей товара.
func (p *Product) Validate() []error {
	var errs []error

	if p.AvailableQty < 0 {
		errs = append(errs, ErrStockNegative)
	}
	if p.PriceMinor < 0 || p.SpecialPriceMinor < 0 {
		errs = append(errs, ErrItemPriceInvalid)
	}

	return errs
}
