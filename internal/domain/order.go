package domain

import "time"

// OrderStatusAccepted — статус, с которым создаётся заказ.
// Других переходов статуса в этой системе нет: заказ неизменяем после создания.
const OrderStatusAccepted = "Order Accepted!"

// OrderItem представляет одну позицию заказа — снимок состояния товара
// на момент оформления. Последующие изменения цены или остатка товара
// не затрагивают уже размещённый заказ.
type OrderItem struct {
	ID        string
	ProductID string
	// ProductName — имя товара на момент оформления.
	ProductName string
	// Qty — количество единиц товара.
	Qty int32
	// DiscountPct — скидка, зафиксированная в корзине.
	DiscountPct float64
	// PriceMinor — цена за единицу, по которой товар был куплен.
	PriceMinor int64
	CreatedAt  time.Time
}

// Order агрегирует оформленный заказ, его позиции и платёж.
type Order struct {
	ID     string
	Email  string
	Status string
	// TotalMinor — сумма заказа, снятая с корзины при оформлении;
	// после создания не пересчитывается.
	TotalMinor int64
	AddressID  string
	Payment    Payment
	Items      []OrderItem
	PlacedAt   time.Time
}

// ValidateInvariants проверяет базовые инварианты заказа.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.Email == "" {
		errs = append(errs, ErrEmailRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrOrderItemsRequired)
	}

	// Сверяем сумму заказа с суммой позиций: qty * price.
	var calc int64
	for _, item := range o.Items {
		if item.Qty <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		calc += int64(item.Qty) * item.PriceMinor
	}
	if calc != o.TotalMinor {
		errs = append(errs, ErrOrderTotalMismatch)
	}

	errs = append(errs, o.Payment.Validate()...)

	return errs
}
