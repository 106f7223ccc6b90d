package memberrepo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/teamsite/roster-api/internal/adapters/contracttest"
	mongoadapter "github.com/teamsite/roster-api/internal/adapters/mongo"
	"github.com/teamsite/roster-api/internal/domain"
	memberrepoport "github.com/teamsite/roster-api/internal/ports/out/memberrepo"
)

func TestContract_MongoMemberRepo(t *testing.T) {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set; skipping mongo contract test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongoadapter.Connect(ctx, uri, mongoadapter.ClientOptions{ConnectTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database("roster_test_" + string(domain.NewMemberID()))
	t.Cleanup(func() { _ = db.Drop(context.Background()) })

	contracttest.RunMemberRepo(t, func(t *testing.T) (memberrepoport.Repository, func()) {
		t.Helper()
		repo := NewRepo(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			t.Fatalf("EnsureIndexes: %v", err)
		}
		return repo, nil
	})
}
