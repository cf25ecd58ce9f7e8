// Package rank assigns each joined record a lead-quality score and
// label. The decision table is business policy agreed with the sales
// team; scores form an ordinal scale from 0 (unknown) to 12 (sold and
// delivered). Change it only with their sign-off.
package rank

import "github.com/b4b-group/leadrank/internal/model"

const (
	labelSpammer = "Spammer"
	labelUnknown = "Unknown"
	labelSold    = "Sold and delivered"

	tagPhoneVerified = "phone verified"
	stageTimedOut    = "Deal Timed Out"
	stageSignedOff   = "Checked & Signed Off"
)

// bucketScores carries the per-bucket scores for the two no-sale
// outcomes. The sold outcome is always 12 regardless of bucket.
type bucketScores struct {
	responded  int
	noResponse int
	// Bucket "3-4" additionally requires the deal stage to be
	// "Checked & Signed Off" before it counts as sold.
	soldNeedsSignOff bool
}

var buckets = map[string]bucketScores{
	"1-2":   {responded: 7, noResponse: 2},
	"3-4":   {responded: 8, noResponse: 3, soldNeedsSignOff: true},
	"5-9":   {responded: 9, noResponse: 4},
	"10-24": {responded: 10, noResponse: 5},
	"25+":   {responded: 11, noResponse: 6},
}

// Record scores a joined record. The table is evaluated top to bottom
// and the first matching branch wins; every branch is explicit, so the
// function is total.
func Record(row model.JoinedRecord) (int, string) {
	if isSpammer(row) {
		return 1, labelSpammer
	}

	if row.StageIs(stageTimedOut) {
		return 0, labelUnknown
	}

	bucket, ok := bucketFor(row)
	if !ok {
		return 0, labelUnknown
	}

	if row.HasDealAmount() && !row.StageIs(stageTimedOut) {
		if !bucket.soldNeedsSignOff || row.StageIs(stageSignedOff) {
			return 12, labelSold
		}
	}

	if responded(row) && !row.HasDealAmount() {
		return bucket.responded, bucketLabel(row) + " line | responded | no sale"
	}

	if row.PhVerified == nil && row.Qualified == nil {
		return bucket.noResponse, bucketLabel(row) + " line | no response"
	}

	return 0, labelUnknown
}

// Records scores a batch of joined records.
func Records(rows []model.JoinedRecord) []model.RankedRecord {
	out := make([]model.RankedRecord, 0, len(rows))
	for _, row := range rows {
		score, desc := Record(row)
		out = append(out, model.RankedRecord{
			JoinedRecord: row,
			Ranking:      score,
			RankingDesc:  desc,
		})
	}
	return out
}

// isSpammer: never phone-verified by tag, no deal, and neither
// verification attribute ever set. Matches before any bucket logic.
func isSpammer(row model.JoinedRecord) bool {
	return !row.HasTag(tagPhoneVerified) &&
		!row.HasDealAmount() &&
		row.PhVerified == nil &&
		row.Qualified == nil
}

func responded(row model.JoinedRecord) bool {
	return attrIsTrue(row.PhVerified) || attrIsTrue(row.Qualified)
}

// attrIsTrue matches the upstream convention: the verification custom
// fields hold the literal strings "True"/"False" when set.
func attrIsTrue(v *string) bool {
	return v != nil && *v == "True"
}

func bucketFor(row model.JoinedRecord) (bucketScores, bool) {
	if row.HandsetCount == nil {
		return bucketScores{}, false
	}
	b, ok := buckets[*row.HandsetCount]
	return b, ok
}

func bucketLabel(row model.JoinedRecord) string {
	return *row.HandsetCount
}
