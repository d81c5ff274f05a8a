package domain

import "time"

// Payment описывает платёжную запись, привязанную к заказу 1:1.
// Поля шлюза — непрозрачные метаданные: логики платёжного протокола здесь нет.
type Payment struct {
	ID      string
	OrderID string
	// Method — способ оплаты, выбранный покупателем.
	Method string
	// GatewayName — имя платёжного шлюза.
	GatewayName string
	// GatewayPaymentID — идентификатор платежа на стороне шлюза.
	GatewayPaymentID string
	// GatewayStatus — статус, который вернул шлюз.
	GatewayStatus string
	// GatewayMessage — текст ответа шлюза.
	GatewayMessage string
	CreatedAt      time.Time
}

// Validate проверяет корректность обязательных полей платежа.
func (p *Payment) Validate() []error {
	var errs []error

	if p.OrderID == "" {
		errs = append(errs, ErrOrderIDRequired)
	}
	if p.Method == "" {
		errs = append(errs, ErrPaymentMethodRequired)
	}

	return errs
}
