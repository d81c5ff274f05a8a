package domain

// Identity — идентичность действующего пользователя. Граничный слой
// резолвит её из сессии и передаёт в ядро явным параметром:
// никакого неявного «текущего пользователя» внутри ядра нет.
type Identity struct {
	UserID string
	Email  string
}
