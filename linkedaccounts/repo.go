package linkedaccounts

type Repo interface {
	Upsert(account *Account) error
	Get(userID, provider string) (*Account, error)
	ListByUser(userID string) ([]*Account, error)
	Delete(userID, provider string) error
}
