package domain

// CartRepository описывает требования к хранилищу корзин.
// Save перезаписывает корзину вместе с позициями в одной атомарной
// операции с учётом optimistic locking по Version.
type CartRepository interface {
	// Create сохраняет новую корзину. Возвращает ErrCartVersionConflict,
	// если корзина с таким ID или владельцем уже существует.
	Create(cart Cart) error
	// Get возвращает корзину по идентификатору или ErrCartNotFound.
	Get(id string) (Cart, error)
	// GetByUser возвращает единственную корзину пользователя или ErrCartNotFound.
	GetByUser(userID string) (Cart, error)
	// GetByEmail возвращает корзину по email владельца или ErrCartNotFound.
	GetByEmail(email string) (Cart, error)
	// List возвращает все корзины (служебный обзор).
	List() ([]Cart, error)
	// Save применяет обновления корзины и её позиций с проверкой версии.
	Save(cart Cart) error
}

// ProductRepository описывает хранилище товаров каталога.
type ProductRepository interface {
	// Create сохраняет новый товар.
	Create(product Product) error
	// Get возвращает товар или ErrProductNotFound.
	Get(id string) (Product, error)
	// List возвращает все товары.
	List() ([]Product, error)
	// Save перезаписывает товар.
	Save(product Product) error
}

// AddressRepository описывает границу коллаборатора адресов.
type AddressRepository interface {
	Create(address Address) error
	// Get возвращает адрес или ErrAddressNotFound.
	Get(id string) (Address, error)
}

// OrderRepository описывает чтение заказов. Создание заказа идёт только
// через CheckoutStore: отдельного пути записи, способного разойтись
// с остатками и корзиной, не существует.
type OrderRepository interface {
	// Get возвращает заказ по идентификатору или ErrOrderNotFound.
	Get(id string) (Order, error)
	// ListByEmail возвращает заказы покупателя с опциональным лимитом.
	ListByEmail(email string, limit int) ([]Order, error)
}
