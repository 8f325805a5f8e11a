package pricefeed

import (
	"github.com/nspcc-dev/fundme-contract/common"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

// RoundData describes price answer of a single aggregation round.
type RoundData struct {
	RoundID         int
	Answer          int
	StartedAt       int
	UpdatedAt       int
	AnsweredInRound int
}

const (
	description = "GAS / USD"

	decimalsKey    = 'd'
	latestRoundKey = 'l'
	roundPrefix    = 'r'

	// ErrNoData is thrown when requested round does not exist.
	ErrNoData = "no data present"
)

// nolint:deadcode,unused
func _deploy(data any, isUpdate bool) {
	if isUpdate {
		args := data.([]any)
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	args := data.(struct {
		decimals      int
		initialAnswer int
	})

	if args.decimals < 0 {
		panic("negative decimals")
	}

	ctx := storage.GetContext()

	storage.Put(ctx, decimalsKey, args.decimals)
	updateAnswer(ctx, args.initialAnswer)

	runtime.Log("price feed contract initialized")
}

// Decimals returns precision of the answers.
func Decimals() int {
	return storage.Get(storage.GetReadOnlyContext(), decimalsKey).(int)
}

// Description returns the asset pair the feed reports.
func Description() string {
	return description
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

// LatestAnswer returns answer of the latest round.
func LatestAnswer() int {
	return LatestRoundData().Answer
}

// LatestTimestamp returns update time of the latest round in milliseconds.
func LatestTimestamp() int {
	return LatestRoundData().UpdatedAt
}

// LatestRound returns identifier of the latest round.
func LatestRound() int {
	return latestRound(storage.GetReadOnlyContext())
}

// LatestRoundData returns data of the latest round.
func LatestRoundData() RoundData {
	ctx := storage.GetReadOnlyContext()
	return getRound(ctx, latestRound(ctx))
}

// GetRoundData returns data of the given round. It panics if the round
// does not exist.
func GetRoundData(roundID int) RoundData {
	return getRound(storage.GetReadOnlyContext(), roundID)
}

// UpdateAnswer starts a new round with the given answer. The feed is a test
// double, so anyone can update it.
//
// It produces AnswerUpdated and NewRound notifications.
func UpdateAnswer(answer int) {
	updateAnswer(storage.GetContext(), answer)
}

// UpdateRoundData overwrites data of the given round and makes it the latest
// one.
//
// It produces AnswerUpdated and NewRound notifications.
func UpdateRoundData(roundID, answer, timestamp, startedAt int) {
	if roundID <= 0 {
		panic("invalid round ID")
	}

	ctx := storage.GetContext()
	putRound(ctx, RoundData{
		RoundID:         roundID,
		Answer:          answer,
		StartedAt:       startedAt,
		UpdatedAt:       timestamp,
		AnsweredInRound: roundID,
	})
}

func updateAnswer(ctx storage.Context, answer int) {
	now := runtime.GetTime()

	putRound(ctx, RoundData{
		RoundID:         latestRound(ctx) + 1,
		Answer:          answer,
		StartedAt:       now,
		UpdatedAt:       now,
		AnsweredInRound: latestRound(ctx) + 1,
	})
}

func putRound(ctx storage.Context, r RoundData) {
	common.SetSerialized(ctx, roundKey(r.RoundID), r)
	storage.Put(ctx, latestRoundKey, r.RoundID)

	runtime.Notify("AnswerUpdated", r.Answer, r.RoundID, r.UpdatedAt)
	runtime.Notify("NewRound", r.RoundID, runtime.GetScriptContainer().Sender, r.StartedAt)
}

func getRound(ctx storage.Context, roundID int) RoundData {
	data := storage.Get(ctx, roundKey(roundID))
	if data == nil {
		panic(ErrNoData)
	}

	return std.Deserialize(data.([]byte)).(RoundData)
}

func latestRound(ctx storage.Context) int {
	data := storage.Get(ctx, latestRoundKey)
	if data == nil {
		return 0
	}

	return data.(int)
}

func roundKey(roundID int) []byte {
	return append([]byte{roundPrefix}, []byte(std.Itoa(roundID, 10))...)
}
