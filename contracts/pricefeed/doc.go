/*
Package pricefeed implements a mock GAS/USD price feed aggregator contract.

It is deployed to development networks only, real networks use an existing
oracle-backed feed with the same read interface: decimals and
latestRoundData. Every answer update starts a new round.

# Contract notifications

AnswerUpdated notification. This notification is produced when a round answer
is set.

	AnswerUpdated:
	  - name: current
	    type: Integer
	  - name: roundID
	    type: Integer
	  - name: updatedAt
	    type: Integer

NewRound notification. This notification is produced with every AnswerUpdated,
startedBy is the sender of the transaction.

	NewRound:
	  - name: roundID
	    type: Integer
	  - name: startedBy
	    type: Hash160
	  - name: startedAt
	    type: Integer
*/
package pricefeed

/*
Contract storage model.

# Summary
Key-value storage format:
 - 'd' -> int
   answer precision
 - 'l' -> int
   latest round ID
 - 'r'<decimal round ID> -> std.Serialize(RoundData)
   round data (here RoundData is a structure defined in current package)
*/
