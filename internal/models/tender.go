package models

type TenderPhase string // Фаза тендера, вычисляется из дедлайнов и флага закрытия

const (
	PhaseOpen         TenderPhase = "Open"         // Приём запечатанных предложений
	PhaseRevealWindow TenderPhase = "RevealWindow" // Раскрытие предложений
	PhaseCloseable    TenderPhase = "Closeable"    // Раскрытие окончено, тендер можно закрыть
	PhaseClosed       TenderPhase = "Closed"       // Тендер закрыт
)

// Tender представляет модель тендера.
type Tender struct {
	ID             uint64 `json:"id"`
	Creator        string `json:"creator"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	ContentRef     string `json:"contentRef"`
	BidDeadline    uint64 `json:"bidDeadline"`
	RevealDeadline uint64 `json:"revealDeadline"`
	MinBid         Amount `json:"minBid"`
	IsClosed       bool   `json:"isClosed"`
	CreatedAt      uint64 `json:"createdAt"`
}

// TenderRequest представляет структуру запроса для создания тендера.
type TenderRequest struct {
	Creator        string `json:"creator"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	ContentRef     string `json:"contentRef"`
	BidDeadline    uint64 `json:"bidDeadline"`
	RevealDeadline uint64 `json:"revealDeadline"`
	MinBid         Amount `json:"minBid"`
}

// TenderView - тендер вместе с текущей фазой.
type TenderView struct {
	Tender
	Phase TenderPhase `json:"phase"`
}

// CloseRequest - запрос на закрытие тендера.
type CloseRequest struct {
	Caller string `json:"caller"`
}

// CloseResponse - результат закрытия тендера. Winner равен nil, если раскрытых предложений не было.
type CloseResponse struct {
	TenderID uint64  `json:"tenderId"`
	Winner   *Winner `json:"winner"`
}
