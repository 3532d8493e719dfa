// ABOUTME: Concurrent prefetch of episode details for the library view
// ABOUTME: Bounds in-flight requests with a weighted semaphore
package library

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/theepicsaxguy/OpenVox/internal/studio"
)

// EpisodeFetcher is the studio client surface prefetching needs.
type EpisodeFetcher interface {
	Episode(ctx context.Context, id int64) (*studio.Episode, error)
}

const maxConcurrentFetches = 4

// AllEpisodes walks the listing and returns every episode in it.
func AllEpisodes(tree *studio.LibraryTree) []studio.Episode {
	if tree == nil {
		return nil
	}
	var out []studio.Episode
	var walk func(folders []*studio.Folder)
	walk = func(folders []*studio.Folder) {
		for _, f := range folders {
			if f == nil {
				continue
			}
			out = append(out, f.Episodes...)
			walk(f.Folders)
		}
	}
	walk(tree.Folders)
	return append(out, tree.Episodes...)
}

// PrefetchDetails fetches full episode records (chunk lists, saved
// positions) for the given episodes. Failures are skipped; the result maps
// episode ID to whatever was fetched before ctx ended.
func PrefetchDetails(ctx context.Context, fetcher EpisodeFetcher, episodes []studio.Episode) map[int64]*studio.Episode {
	sem := semaphore.NewWeighted(maxConcurrentFetches)
	var mu sync.Mutex
	var wg sync.WaitGroup
	out := make(map[int64]*studio.Episode, len(episodes))

	for _, ep := range episodes {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			defer sem.Release(1)

			full, err := fetcher.Episode(ctx, id)
			if err != nil {
				return
			}
			mu.Lock()
			out[id] = full
			mu.Unlock()
		}(ep.ID)
	}

	wg.Wait()
	return out
}

// ProgressByEpisode extracts server-side listened percents from prefetched
// details. Episodes with no saved position are left out.
func ProgressByEpisode(details map[int64]*studio.Episode) map[int64]float64 {
	out := make(map[int64]float64, len(details))
	for id, ep := range details {
		if ep == nil || ep.Resume == nil || ep.Resume.Percent <= 0 {
			continue
		}
		out[id] = ep.Resume.Percent
	}
	return out
}
