package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/aria-player/aria/internal/models"
	"github.com/aria-player/aria/internal/shared"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func sampleTrack(id string) models.Track {
	return models.Track{
		ID:        id,
		Title:     "Title " + id,
		Artist:    "Artist " + id,
		CoverURL:  "https://cdn.example.com/" + id + ".jpg",
		SourceRef: "https://cdn.example.com/" + id + ".m4a",
		Duration:  200,
	}
}

func TestNextSequence(t *testing.T) {
	db := newTestDB(t)

	first, err := NextSequence(db, "liked_tracks")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := NextSequence(db, "liked_tracks")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if first != 1 || second != 2 {
		t.Errorf("expected sequence 1 then 2, got %d then %d", first, second)
	}
}

func TestLikedTrackRepository(t *testing.T) {
	t.Run("Create And Get", func(t *testing.T) {
		repo := NewLikedTrackRepository(newTestDB(t))
		liked := models.NewLikedTrack(0, sampleTrack("a"))

		if err := repo.Create(liked); err != nil {
			t.Fatalf("expected create to succeed, got %v", err)
		}
		if liked.ID() == "" {
			t.Error("expected generated row ID")
		}

		got, err := repo.Get(liked.ID())
		if err != nil {
			t.Fatalf("expected get to succeed, got %v", err)
		}
		if got.Track().Title != "Title a" {
			t.Errorf("unexpected track %+v", got.Track())
		}
	})

	t.Run("Get By Track ID", func(t *testing.T) {
		repo := NewLikedTrackRepository(newTestDB(t))
		if err := repo.Create(models.NewLikedTrack(0, sampleTrack("a"))); err != nil {
			t.Fatal(err)
		}

		got, err := repo.GetByTrackID("a")
		if err != nil {
			t.Fatalf("expected lookup to succeed, got %v", err)
		}
		if got.Track().ID != "a" {
			t.Errorf("unexpected track %+v", got.Track())
		}
	})

	t.Run("Duplicate Track Rejected", func(t *testing.T) {
		repo := NewLikedTrackRepository(newTestDB(t))
		if err := repo.Create(models.NewLikedTrack(0, sampleTrack("a"))); err != nil {
			t.Fatal(err)
		}

		if err := repo.Create(models.NewLikedTrack(0, sampleTrack("a"))); err == nil {
			t.Error("expected unique constraint violation")
		}
	})

	t.Run("Validation Failure", func(t *testing.T) {
		repo := NewLikedTrackRepository(newTestDB(t))

		if err := repo.Create(models.NewLikedTrack(0, models.Track{})); err == nil {
			t.Error("expected validation error for empty track")
		}
	})

	t.Run("Delete By Track ID", func(t *testing.T) {
		repo := NewLikedTrackRepository(newTestDB(t))
		if err := repo.Create(models.NewLikedTrack(0, sampleTrack("a"))); err != nil {
			t.Fatal(err)
		}

		if err := repo.DeleteByTrackID("a"); err != nil {
			t.Fatalf("expected delete to succeed, got %v", err)
		}

		if _, err := repo.GetByTrackID("a"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected not found after delete, got %v", err)
		}

		if err := repo.DeleteByTrackID("a"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected not found for repeated delete, got %v", err)
		}
	})

	t.Run("List In Like Order", func(t *testing.T) {
		repo := NewLikedTrackRepository(newTestDB(t))
		for _, id := range []string{"c", "a", "b"} {
			if err := repo.Create(models.NewLikedTrack(0, sampleTrack(id))); err != nil {
				t.Fatal(err)
			}
		}

		liked, err := repo.List(nil)
		if err != nil {
			t.Fatalf("expected list to succeed, got %v", err)
		}
		if len(liked) != 3 {
			t.Fatalf("expected 3 rows, got %d", len(liked))
		}
		order := []string{liked[0].Track().ID, liked[1].Track().ID, liked[2].Track().ID}
		if order[0] != "c" || order[1] != "a" || order[2] != "b" {
			t.Errorf("expected like order [c a b], got %v", order)
		}
	})
}

func TestPlaylistRepository(t *testing.T) {
	t.Run("Create And Get Round Trip", func(t *testing.T) {
		repo := NewPlaylistRepository(newTestDB(t))
		tracks := []models.Track{sampleTrack("a"), sampleTrack("b")}
		record := models.NewPlaylistRecord(0, "Jazz", "rainy day jazz", tracks)

		if err := repo.Create(record); err != nil {
			t.Fatalf("expected create to succeed, got %v", err)
		}

		got, err := repo.Get(record.ID())
		if err != nil {
			t.Fatalf("expected get to succeed, got %v", err)
		}
		if got.Name() != "Jazz" || got.Prompt() != "rainy day jazz" {
			t.Errorf("unexpected record %s/%s", got.Name(), got.Prompt())
		}
		if len(got.Tracks()) != 2 || got.Tracks()[1].ID != "b" {
			t.Errorf("unexpected payload %v", got.Tracks())
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewPlaylistRepository(newTestDB(t))
		record := models.NewPlaylistRecord(0, "Jazz", "", nil)
		if err := repo.Create(record); err != nil {
			t.Fatal(err)
		}

		record.SetName("Evening Jazz")
		record.SetTracks([]models.Track{sampleTrack("a")})
		if err := repo.Update(record); err != nil {
			t.Fatalf("expected update to succeed, got %v", err)
		}

		got, err := repo.Get(record.ID())
		if err != nil {
			t.Fatal(err)
		}
		if got.Name() != "Evening Jazz" || len(got.Tracks()) != 1 {
			t.Errorf("unexpected record after update: %s, %d tracks", got.Name(), len(got.Tracks()))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewPlaylistRepository(newTestDB(t))
		record := models.NewPlaylistRecord(0, "Jazz", "", nil)
		if err := repo.Create(record); err != nil {
			t.Fatal(err)
		}

		if err := repo.Delete(record.ID()); err != nil {
			t.Fatalf("expected delete to succeed, got %v", err)
		}
		if _, err := repo.Get(record.ID()); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected not found after delete, got %v", err)
		}
	})

	t.Run("Validation Failure", func(t *testing.T) {
		repo := NewPlaylistRepository(newTestDB(t))

		if err := repo.Create(models.NewPlaylistRecord(0, "", "", nil)); err == nil {
			t.Error("expected validation error for unnamed playlist")
		}
	})

	t.Run("List In Creation Order", func(t *testing.T) {
		repo := NewPlaylistRepository(newTestDB(t))
		for _, name := range []string{"First", "Second"} {
			if err := repo.Create(models.NewPlaylistRecord(0, name, "", nil)); err != nil {
				t.Fatal(err)
			}
		}

		playlists, err := repo.List(nil)
		if err != nil {
			t.Fatalf("expected list to succeed, got %v", err)
		}
		if len(playlists) != 2 || playlists[0].Name() != "First" {
			t.Errorf("unexpected list %v", playlists)
		}
	})
}

func TestLocalLikesAdapter(t *testing.T) {
	t.Run("Put Is Idempotent", func(t *testing.T) {
		adapter := NewLocalLikesAdapter(NewLikedTrackRepository(newTestDB(t)))
		track := sampleTrack("a")

		if err := adapter.Put(track); err != nil {
			t.Fatalf("expected put to succeed, got %v", err)
		}
		if err := adapter.Put(track); err != nil {
			t.Fatalf("expected repeated put to be a no-op, got %v", err)
		}

		all, err := adapter.All()
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 1 {
			t.Errorf("expected a single stored track, got %d", len(all))
		}
	})

	t.Run("Remove Tolerates Missing", func(t *testing.T) {
		adapter := NewLocalLikesAdapter(NewLikedTrackRepository(newTestDB(t)))

		if err := adapter.Remove("never-stored"); err != nil {
			t.Errorf("expected missing removal to be a no-op, got %v", err)
		}
	})

	t.Run("Round Trip", func(t *testing.T) {
		adapter := NewLocalLikesAdapter(NewLikedTrackRepository(newTestDB(t)))

		adapter.Put(sampleTrack("a"))
		adapter.Put(sampleTrack("b"))
		adapter.Remove("a")

		all, err := adapter.All()
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 1 || all[0].ID != "b" {
			t.Errorf("expected only b stored, got %v", all)
		}
	})
}
