package calculator

import (
	"errors"
	"testing"

	"github.com/tallyhq/tally/internal/models"
)

func members(ids ...string) []models.User {
	users := make([]models.User, len(ids))
	for i, id := range ids {
		users[i] = models.User{ID: id, Name: id, Username: id}
	}
	return users
}

func TestSplitEqual(t *testing.T) {
	tests := []struct {
		name    string
		amount  int64
		members []models.User
		want    map[string]int64
	}{
		{
			name:    "even split",
			amount:  100,
			members: members("alice", "bob"),
			want:    map[string]int64{"alice": 50, "bob": 50},
		},
		{
			name:    "remainder goes to earliest members",
			amount:  10,
			members: members("alice", "bob", "carol"),
			want:    map[string]int64{"alice": 4, "bob": 3, "carol": 3},
		},
		{
			name:    "amount smaller than member count",
			amount:  2,
			members: members("alice", "bob", "carol"),
			want:    map[string]int64{"alice": 1, "bob": 1, "carol": 0},
		},
		{
			name:    "single member takes everything",
			amount:  999,
			members: members("alice"),
			want:    map[string]int64{"alice": 999},
		},
		{
			name:    "zero amount",
			amount:  0,
			members: members("alice", "bob"),
			want:    map[string]int64{"alice": 0, "bob": 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := Split(tt.amount, models.SplitEqual, tt.members)
			if err != nil {
				t.Fatalf("Split failed: %v", err)
			}
			if len(shares) != len(tt.members) {
				t.Fatalf("got %d shares, want one per member (%d)", len(shares), len(tt.members))
			}

			var sum int64
			for i, share := range shares {
				sum += share.Split
				if share.UserID != tt.members[i].ID {
					t.Errorf("share %d user = %s, want %s (member order)", i, share.UserID, tt.members[i].ID)
				}
				if want := tt.want[share.UserID]; share.Split != want {
					t.Errorf("%s split = %d, want %d", share.UserID, share.Split, want)
				}
			}
			if sum != tt.amount {
				t.Errorf("shares sum to %d, want exactly %d", sum, tt.amount)
			}
		})
	}
}

func TestSplitEqualDeterministic(t *testing.T) {
	group := members("alice", "bob", "carol")
	first, err := Split(100, models.SplitEqual, group)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Split(100, models.SplitEqual, group)
		if err != nil {
			t.Fatalf("Split failed: %v", err)
		}
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("run %d share %d = %+v, want %+v", i, j, again[j], first[j])
			}
		}
	}
}

func TestSplitRejections(t *testing.T) {
	tests := []struct {
		name      string
		amount    int64
		splitType models.SplitType
		members   []models.User
		wantErr   error
	}{
		{"percent is not implemented", 100, models.SplitPercent, members("alice"), ErrUnsupportedSplit},
		{"amount is not implemented", 100, models.SplitAmount, members("alice"), ErrUnsupportedSplit},
		{"unknown policy code", 100, models.SplitType(42), members("alice"), ErrUnsupportedSplit},
		{"no members", 100, models.SplitEqual, nil, ErrNoMembers},
		{"negative amount", -1, models.SplitEqual, members("alice"), ErrNegativeAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := Split(tt.amount, tt.splitType, tt.members)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Split() error = %v, want %v", err, tt.wantErr)
			}
			if shares != nil {
				t.Errorf("expected no shares on error, got %v", shares)
			}
		})
	}
}
