package models

import "encoding/hex"

// Bid представляет модель запечатанного предложения.
type Bid struct {
	TenderID       uint64  `json:"tenderId"`
	Bidder         string  `json:"bidder"`
	Commitment     []byte  `json:"commitment"`
	RevealedAmount *Amount `json:"revealedAmount,omitempty"`
	IsValid        bool    `json:"isValid"`
	SubmittedAt    uint64  `json:"submittedAt"`
}

// BidderIndex - упорядоченный список участников тендера в порядке подачи.
type BidderIndex struct {
	TenderID uint64   `json:"tenderId"`
	Bidders  []string `json:"bidders"`
}

// Contains проверяет, подавал ли участник предложение.
func (idx *BidderIndex) Contains(bidder string) bool {
	for _, b := range idx.Bidders {
		if b == bidder {
			return true
		}
	}
	return false
}

// Winner - результат выбора победителя при закрытии тендера.
type Winner struct {
	TenderID   uint64 `json:"tenderId"`
	Bidder     string `json:"bidder"`
	Amount     Amount `json:"amount"`
	SelectedAt uint64 `json:"selectedAt"`
}

// BidRequest представляет структуру запроса на подачу предложения.
type BidRequest struct {
	TenderID   uint64 `json:"tenderId"`
	Bidder     string `json:"bidder"`
	Commitment string `json:"commitment"` // hex
}

// RevealRequest представляет структуру запроса на раскрытие предложения.
type RevealRequest struct {
	TenderID uint64 `json:"tenderId"`
	Bidder   string `json:"bidder"`
	Amount   Amount `json:"amount"`
	Secret   string `json:"secret"`
}

// SealRequest - запрос на построение обязательства на стороне сервиса.
type SealRequest struct {
	TenderID uint64 `json:"tenderId"`
	Bidder   string `json:"bidder"`
	Amount   Amount `json:"amount"`
	Secret   string `json:"secret"`
}

// SealResponse - обязательство в hex для последующей подачи.
type SealResponse struct {
	Scheme     string `json:"scheme"`
	Commitment string `json:"commitment"`
}

// BidView - публичное представление предложения, обязательство в hex.
type BidView struct {
	TenderID       uint64  `json:"tenderId"`
	Bidder         string  `json:"bidder"`
	Commitment     string  `json:"commitment"`
	RevealedAmount *Amount `json:"revealedAmount,omitempty"`
	IsValid        bool    `json:"isValid"`
	SubmittedAt    uint64  `json:"submittedAt"`
}

// View возвращает публичное представление предложения.
func (b *Bid) View() BidView {
	return BidView{
		TenderID:       b.TenderID,
		Bidder:         b.Bidder,
		Commitment:     hex.EncodeToString(b.Commitment),
		RevealedAmount: b.RevealedAmount,
		IsValid:        b.IsValid,
		SubmittedAt:    b.SubmittedAt,
	}
}
