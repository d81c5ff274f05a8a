package domain

import "time"

// Address описывает адрес доставки. Управление адресами — внешний
// коллаборатор; ядру нужна только загрузка по идентификатору.
type Address struct {
	ID        string
	Street    string
	City      string
	State     string
	Country   string
	Pincode   string
	CreatedAt time.Time
}
