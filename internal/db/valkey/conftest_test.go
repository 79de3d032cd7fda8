package valkey

import (
	"testing"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"
)

// newMockStore wires a Store to a rueidis mock client.
func newMockStore(t *testing.T) (*Store, *mock.Client) {
	t.Helper()
	c := mock.NewClient(gomock.NewController(t))
	return &Store{client: c}, c
}
