package model

// JoinedRecord is a contact extended with at most one matched lead and at
// most one matched deal. Lead is nil when no lead shares the contact's
// email. Deal fields stay nil when no deal matched on any join key;
// DealID and DealOwner are unpopulated sentinels kept for report parity.
type JoinedRecord struct {
	CleanContact

	Lead *CleanLead `json:"lead,omitempty"`

	Amount    *float64 `json:"Amount"`
	Stage     *string  `json:"Stage"`
	DealID    *string  `json:"Deal_ID"`
	DealOwner *string  `json:"Deal_Owner"`
}

// HasDealAmount reports whether a deal amount was attached during the
// join. Mirrors the classifier's "amount present" tests.
func (r JoinedRecord) HasDealAmount() bool {
	return r.Amount != nil
}

// StageIs reports whether the attached deal's stage equals s. A record
// with no attached deal never matches any stage.
func (r JoinedRecord) StageIs(s string) bool {
	return r.Stage != nil && *r.Stage == s
}

// RankedRecord is a joined record with its lead-quality score attached.
type RankedRecord struct {
	JoinedRecord

	Ranking     int    `json:"ranking"`
	RankingDesc string `json:"ranking_desc"`
}
