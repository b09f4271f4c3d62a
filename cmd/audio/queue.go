package audio

import (
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
)

// queue owns the track order, shuffle permutation and repeat semantics for
// one layer. It is not safe for concurrent use; the owning layer's lock
// guards every call.
type queue struct {
	tracks       []Track
	currentIndex int // -1 when nothing is selected
	shuffled     bool
	repeat       RepeatMode
	shuffleOrder []int // permutation of [0, len(tracks)) while shuffle is on
	shuffleIndex int   // cursor into shuffleOrder
	rng          *rand.Rand
}

func newQueue() *queue {
	return &queue{
		currentIndex: -1,
		repeat:       RepeatNone,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// loadPlaylist replaces the track list, regenerates the shuffle permutation
// and resets the selection.
func (q *queue) loadPlaylist(p Playlist) {
	q.tracks = lo.Map(p.TrackPaths, func(path string, _ int) Track {
		return Track{FilePath: path, Title: titleFromPath(path)}
	})
	q.currentIndex = -1
	q.regenerateShuffleOrder()
}

// titleFromPath derives a display title from the filename minus extension.
func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// regenerateShuffleOrder builds a fresh Fisher-Yates permutation of the
// track indices and resets the cursor.
func (q *queue) regenerateShuffleOrder() {
	q.shuffleOrder = make([]int, len(q.tracks))
	for i := range q.shuffleOrder {
		q.shuffleOrder[i] = i
	}
	q.rng.Shuffle(len(q.shuffleOrder), func(i, j int) {
		q.shuffleOrder[i], q.shuffleOrder[j] = q.shuffleOrder[j], q.shuffleOrder[i]
	})
	q.shuffleIndex = 0
}

// nextIndex computes the index of the next track without selecting it.
// Returns false when the queue is exhausted and repeat does not wrap.
func (q *queue) nextIndex() (int, bool) {
	if len(q.tracks) == 0 {
		return 0, false
	}
	if q.currentIndex < 0 {
		if q.shuffled {
			q.shuffleIndex = 0
			return q.shuffleOrder[0], true
		}
		return 0, true
	}
	if q.shuffled {
		if q.shuffleIndex+1 < len(q.shuffleOrder) {
			q.shuffleIndex++
			return q.shuffleOrder[q.shuffleIndex], true
		}
		if q.repeat == RepeatPlaylist {
			q.regenerateShuffleOrder()
			return q.shuffleOrder[0], true
		}
		return 0, false
	}
	next := q.currentIndex + 1
	if next >= len(q.tracks) {
		if q.repeat == RepeatPlaylist {
			return 0, true
		}
		return 0, false
	}
	return next, true
}

// previousIndex mirrors nextIndex moving backward. The shuffle cursor only
// decrements, clamped at zero; it never wraps.
func (q *queue) previousIndex() (int, bool) {
	if len(q.tracks) == 0 || q.currentIndex < 0 {
		return 0, false
	}
	if q.shuffled {
		if q.shuffleIndex > 0 {
			q.shuffleIndex--
		}
		return q.shuffleOrder[q.shuffleIndex], true
	}
	prev := q.currentIndex - 1
	if prev < 0 {
		if q.repeat == RepeatPlaylist {
			return len(q.tracks) - 1, true
		}
		return 0, false
	}
	return prev, true
}

// selectIndex makes the given index current and, when shuffle is on, moves
// the cursor to that track's slot in the permutation so subsequent
// navigation continues from there.
func (q *queue) selectIndex(index int) {
	if index < 0 || index >= len(q.tracks) {
		q.currentIndex = -1
		return
	}
	q.currentIndex = index
	if q.shuffled {
		for pos, trackIndex := range q.shuffleOrder {
			if trackIndex == index {
				q.shuffleIndex = pos
				break
			}
		}
	}
}

func (q *queue) setShuffled(on bool) {
	q.shuffled = on
	if on {
		q.regenerateShuffleOrder()
		if q.currentIndex >= 0 {
			q.selectIndex(q.currentIndex)
		}
	}
}

// cycleRepeat advances none -> playlist -> track -> none.
func (q *queue) cycleRepeat() RepeatMode {
	switch q.repeat {
	case RepeatNone:
		q.repeat = RepeatPlaylist
	case RepeatPlaylist:
		q.repeat = RepeatTrack
	default:
		q.repeat = RepeatNone
	}
	return q.repeat
}

func (q *queue) len() int { return len(q.tracks) }

func (q *queue) trackAt(index int) (Track, bool) {
	if index < 0 || index >= len(q.tracks) {
		return Track{}, false
	}
	return q.tracks[index], true
}

func (q *queue) currentTrack() (Track, bool) {
	return q.trackAt(q.currentIndex)
}

func (q *queue) setTrackDuration(index int, d time.Duration) {
	if index >= 0 && index < len(q.tracks) {
		q.tracks[index].Duration = d
	}
}

// indexOfPath returns the queue index of the track with the given path.
func (q *queue) indexOfPath(path string) (int, bool) {
	_, i, ok := lo.FindIndexOf(q.tracks, func(t Track) bool {
		return t.FilePath == path
	})
	return i, ok
}
