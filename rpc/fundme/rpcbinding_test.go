package fundme

import (
	"math/big"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
)

func TestEventsFromApplicationLog(t *testing.T) {
	var (
		contract = util.Uint160{1, 2, 3}
		funder   = util.Uint160{4, 5, 6}
		owner    = util.Uint160{7, 8, 9}
	)

	log := &result.ApplicationLog{
		Executions: []state.Execution{{
			Events: []state.NotificationEvent{
				{
					ScriptHash: contract,
					Name:       "Funded",
					Item:       stackitem.NewArray([]stackitem.Item{stackitem.NewByteArray(funder.BytesBE()), stackitem.Make(100)}),
				},
				{
					ScriptHash: contract,
					Name:       "Transfer",
					Item:       stackitem.NewArray([]stackitem.Item{stackitem.Null{}}),
				},
				{
					ScriptHash: contract,
					Name:       "Withdrawn",
					Item:       stackitem.NewArray([]stackitem.Item{stackitem.NewByteArray(owner.BytesBE()), stackitem.Make(100)}),
				},
			},
		}},
	}

	funded, err := FundedEventsFromApplicationLog(log)
	require.NoError(t, err)
	require.Equal(t, []*FundedEvent{{Funder: funder, Amount: big.NewInt(100)}}, funded)

	withdrawn, err := WithdrawnEventsFromApplicationLog(log)
	require.NoError(t, err)
	require.Equal(t, []*WithdrawnEvent{{Owner: owner, Amount: big.NewInt(100)}}, withdrawn)

	_, err = FundedEventsFromApplicationLog(nil)
	require.Error(t, err)

	log.Executions[0].Events[0].Item = stackitem.NewArray([]stackitem.Item{stackitem.Make(1)})
	_, err = FundedEventsFromApplicationLog(log)
	require.Error(t, err)
}
