package domain

import "time"

// CartItem представляет одну позицию корзины. Цена и скидка фиксируются
// в момент добавления/обновления и не пересчитываются при чтении.
type CartItem struct {
	ID        string
	ProductID string
	// ProductName дублируется из каталога для удобства отображения.
	ProductName string
	// Qty — количество единиц товара; позиция с нулевым количеством не хранится.
	Qty int32
	// PriceMinor — зафиксированная цена за единицу (special price товара).
	PriceMinor int64
	// DiscountPct — зафиксированная скидка на момент добавления.
	DiscountPct float64
	AddedAt     time.Time
}

// Cart агрегирует позиции одного пользователя и кешированную сумму.
// У пользователя не бывает больше одной корзины; корзина хранит
// владельца по ссылке и не встраивается в пользователя.
type Cart struct {
	ID     string
	UserID string
	Email  string
	Items  []CartItem
	// TotalMinor — кешированная сумма; инвариант: равна Σ qty * price по позициям.
	TotalMinor int64
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ItemByProduct возвращает позицию по товару и признак её наличия.
func (c *Cart) ItemByProduct(productID string) (CartItem, bool) {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return CartItem{}, false
}

// ItemsSum пересчитывает сумму корзины по позициям.
func (c *Cart) ItemsSum() int64 {
	var sum int64
	for _, item := range c.Items {
		sum += int64(item.Qty) * item.PriceMinor
	}
	return sum
}

// ValidateInvariants проверяет инварианты корзины и возвращает список замечаний.
// Вызывается после каждой мутации перед сохранением: кешированная сумма
// обязана сходиться с позициями сразу, а не «в конечном счёте».
func (c *Cart) ValidateInvariants() []error {
	var errs []error

	if c.UserID == "" {
		errs = append(errs, ErrCartOwnerRequired)
	}
	if c.TotalMinor < 0 {
		errs = append(errs, ErrCartTotalMismatch)
	}

	seen := make(map[string]struct{}, len(c.Items))
	for _, item := range c.Items {
		if item.Qty <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		// (корзина, товар) уникальны: один товар — одна позиция.
		if _, dup := seen[item.ProductID]; dup {
			errs = append(errs, ErrCartItemExists)
		}
		seen[item.ProductID] = struct{}{}
	}

	if c.ItemsSum() != c.TotalMinor {
		errs = append(errs, ErrCartTotalMismatch)
	}

	return errs
}
