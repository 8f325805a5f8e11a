/*
Package fundme implements FundMe contract which collects GAS contributions.

Anyone can fund the contract by transferring native GAS to it. Contribution is
accepted only if its USD value is not less than a fixed minimum. USD value is
computed from the latest answer of the GAS/USD price feed contract configured
at deployment. The contract keeps track of every funder and the total amount
contributed since the latest withdrawal.

Only the owner set at deployment can withdraw collected GAS. Withdrawal sends
the whole contract balance to the owner and resets all funding records.

# Contract notifications

Funded notification. This notification is produced when a contribution is
accepted.

	Funded:
	  - name: funder
	    type: Hash160
	  - name: amount
	    type: Integer

Withdrawn notification. This notification is produced when the owner takes
collected funds.

	Withdrawn:
	  - name: owner
	    type: Hash160
	  - name: amount
	    type: Integer
*/
package fundme

/*
Contract storage model.

# Summary
Key-value storage format:
 - 'o' -> interop.Hash160
   contract owner address
 - 'p' -> interop.Hash160
   GAS/USD price feed script hash
 - 'f' -> std.Serialize([]interop.Hash160)
   funder list ordered by the first contribution
 - 'a'<interop.Hash160> -> int
   amount of GAS funded by the address since the latest withdrawal

# Funding cycle
Address is appended to the funder list only when it has no amount record.
Withdrawal deletes every amount record and the list itself.
*/
