package domain

import "errors"

var (
	// Ошибка отсутствующего товара в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// Ошибка отсутствующей корзины пользователя.
	ErrCartNotFound = errors.New("cart not found")
	// Ошибка отсутствующей позиции в корзине.
	ErrCartItemNotFound = errors.New("cart item not found")
	// Ошибка отсутствующего адреса доставки.
	ErrAddressNotFound = errors.New("address not found")
	// Ошибка отсутствующего заказа.
	ErrOrderNotFound = errors.New("order not found")
	// ErrCartItemExists возвращается при повторном добавлении товара в корзину:
	// изменение количества идёт через отдельную операцию.
	ErrCartItemExists = errors.New("product already exists in the cart")
	// ErrInsufficientStock — запрошенное количество превышает остаток на складе.
	ErrInsufficientStock = errors.New("requested quantity exceeds available stock")
	// ErrProductUnavailable — товар закончился (остаток равен нулю).
	ErrProductUnavailable = errors.New("product is out of stock")
	// ErrQuantityNegative — изменение количества приводит к отрицательному значению.
	ErrQuantityNegative = errors.New("resulting quantity cannot be negative")
	// ErrQuantityInvalid — количество в запросе должно быть строго положительным.
	ErrQuantityInvalid = errors.New("quantity must be greater than zero")
	// ErrCartEmpty — оформление пустой корзины запрещено.
	ErrCartEmpty = errors.New("cart is empty")
	// ErrCartVersionConflict сигнализирует о конфликте версий при сохранении корзины.
	ErrCartVersionConflict = errors.New("cart version conflict")
	// Ошибка отсутствующего владельца корзины.
	ErrCartOwnerRequired = errors.New("cart owner is required")
	// Ошибка отсутствующего email при оформлении заказа.
	ErrEmailRequired = errors.New("email is required")
	// Ошибка отсутствующего идентификатора заказа в платеже.
	ErrOrderIDRequired = errors.New("order_id is required")
	// Ошибка отсутствующего способа оплаты.
	ErrPaymentMethodRequired = errors.New("payment method is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrOrderItemsRequired = errors.New("order must contain at least one item")
	// Ошибка при некорректном количестве позиции (<= 0).
	ErrItemQtyInvalid = errors.New("item qty must be greater than zero")
	// Ошибка при отрицательной цене позиции.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// ErrCartTotalMismatch — кешированная сумма корзины разошлась с суммой позиций.
	// Нарушение внутреннего инварианта, а не ошибка пользователя.
	ErrCartTotalMismatch = errors.New("cart total does not match items sum")
	// ErrOrderTotalMismatch — сумма заказа не совпадает с суммой позиций.
	ErrOrderTotalMismatch = errors.New("order total does not match items sum")
	// ErrStockNegative — списание увело остаток товара ниже нуля.
	// Нарушение инварианта склада; такой коммит обязан откатываться.
	ErrStockNegative = errors.New("product stock went negative")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsNotFound проверяет, что ошибка означает отсутствие сущности.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrCartNotFound) ||
		errors.Is(err, ErrCartItemNotFound) ||
		errors.Is(err, ErrAddressNotFound) ||
		errors.Is(err, ErrOrderNotFound)
}

// IsConflict проверяет, что ошибка вызвана дублирующей записью.
func IsConflict(err error) bool {
	return errors.Is(err, ErrCartItemExists)
}

// IsInvalidRequest проверяет, что запрос отвергнут бизнес-правилами.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrProductUnavailable) ||
		errors.Is(err, ErrQuantityNegative) ||
		errors.Is(err, ErrQuantityInvalid) ||
		errors.Is(err, ErrCartEmpty) ||
		errors.Is(err, ErrCartOwnerRequired) ||
		errors.Is(err, ErrEmailRequired) ||
		errors.Is(err, ErrOrderIDRequired) ||
		errors.Is(err, ErrPaymentMethodRequired) ||
		errors.Is(err, ErrOrderItemsRequired) ||
		errors.Is(err, ErrItemQtyInvalid) ||
		errors.Is(err, ErrItemPriceInvalid)
}

// IsIntegrityViolation проверяет, что нарушен внутренний инвариант данных.
// Такие ошибки требуют алерта, а не показа пользователю.
func IsIntegrityViolation(err error) bool {
	return errors.Is(err, ErrCartTotalMismatch) ||
		errors.Is(err, ErrOrderTotalMismatch) ||
		errors.Is(err, ErrStockNegative)
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий корзины.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrCartVersionConflict)
}
