package keyindexer

import "flow-wallet/go-core/pkg/models"

// aggregateAccounts groups key entries by address, preserving the order in
// which an address first appears in the indexer response. Key order within an
// account follows response order as well.
func aggregateAccounts(entries []models.AccountKey) []models.Account {
	if len(entries) == 0 {
		return nil
	}

	index := make(map[string]int, len(entries))
	accounts := make([]models.Account, 0, len(entries))
	for _, entry := range entries {
		pos, ok := index[entry.Address]
		if !ok {
			pos = len(accounts)
			index[entry.Address] = pos
			accounts = append(accounts, models.Account{Address: entry.Address})
		}
		accounts[pos].Keys = append(accounts[pos].Keys, entry)
	}
	return accounts
}
