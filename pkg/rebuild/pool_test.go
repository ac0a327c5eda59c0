package rebuild

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/marquee/pkg/index"
	"github.com/papercomputeco/marquee/pkg/movie"
)

// fakeIndex records calls and detects overlapping builds.
type fakeIndex struct {
	mu       sync.Mutex
	builds   [][]movie.Record
	resets   int
	active   atomic.Int32
	overlaps atomic.Int32
	delay    time.Duration
	err      error
}

func (f *fakeIndex) enter() {
	if f.active.Add(1) > 1 {
		f.overlaps.Add(1)
	}
	time.Sleep(f.delay)
}

func (f *fakeIndex) Build(_ context.Context, records []movie.Record) (*index.BuildReport, error) {
	f.enter()
	defer f.active.Add(-1)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.builds = append(f.builds, records)
	return &index.BuildReport{Count: len(records), Skipped: len(records) == 0}, nil
}

func (f *fakeIndex) Reset(_ context.Context) (*index.BuildReport, error) {
	f.enter()
	defer f.active.Add(-1)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return &index.BuildReport{}, nil
}

func (f *fakeIndex) buildCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.builds)
}

var _ = Describe("Rebuild Pool", func() {
	var (
		ctx     context.Context
		fake    *fakeIndex
		pool    *Pool
		catalog []movie.Record
	)

	BeforeEach(func() {
		ctx = context.Background()
		fake = &fakeIndex{}
		catalog = []movie.Record{{Title: "Heat"}, {Title: "Alien"}}

		var err error
		pool, err = NewPool(&Config{
			Index:   fake,
			Catalog: func() ([]movie.Record, error) { return catalog, nil },
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		pool.Close()
	})

	It("requires an index", func() {
		_, err := NewPool(&Config{})
		Expect(err).To(HaveOccurred())
	})

	Describe("Submit", func() {
		It("returns the build report for given records", func() {
			report, err := pool.Submit(ctx, Job{Records: []movie.Record{{Title: "Heat"}}})
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Count).To(Equal(1))
		})

		It("loads the catalog when no records are given", func() {
			report, err := pool.Submit(ctx, Job{Origin: "test"})
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Count).To(Equal(2))
		})

		It("distinguishes an empty record set from none", func() {
			report, err := pool.Submit(ctx, Job{Records: []movie.Record{}})
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Skipped).To(BeTrue())
		})

		It("runs resets", func() {
			_, err := pool.Submit(ctx, Job{Kind: KindReset})
			Expect(err).NotTo(HaveOccurred())
			Expect(fake.resets).To(Equal(1))
		})

		It("returns build errors", func() {
			fake.err = errors.New("encoder offline")
			_, err := pool.Submit(ctx, Job{Records: catalog})
			Expect(err).To(MatchError("encoder offline"))
		})

		It("returns catalog errors", func() {
			pool.config.Catalog = func() ([]movie.Record, error) { return nil, errors.New("bad json") }
			_, err := pool.Submit(ctx, Job{})
			Expect(err).To(MatchError(ContainSubstring("loading catalog: bad json")))
		})

		It("returns ErrClosed after Close", func() {
			pool.Close()
			_, err := pool.Submit(ctx, Job{})
			Expect(err).To(MatchError(ErrClosed))
		})

		It("gives up waiting when the context ends", func() {
			fake.delay = 200 * time.Millisecond
			short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()

			_, err := pool.Submit(short, Job{Records: catalog})
			Expect(err).To(MatchError(context.DeadlineExceeded))
		})
	})

	Describe("Enqueue", func() {
		It("runs jobs one at a time", func() {
			fake.delay = 5 * time.Millisecond
			for range 5 {
				Expect(pool.Enqueue(Job{Records: catalog, Origin: "watch"})).To(BeTrue())
			}
			_, err := pool.Submit(ctx, Job{Kind: KindReset})
			Expect(err).NotTo(HaveOccurred())

			Expect(fake.buildCount()).To(Equal(5))
			Expect(fake.overlaps.Load()).To(BeZero())
		})

		It("drops jobs when the queue is full", func() {
			small, err := NewPool(&Config{Index: fake, QueueSize: 1})
			Expect(err).NotTo(HaveOccurred())
			defer small.Close()

			fake.delay = 100 * time.Millisecond
			accepted := 0
			for range 5 {
				if small.Enqueue(Job{Records: catalog}) {
					accepted++
				}
			}
			Expect(accepted).To(BeNumerically("<", 5))
		})

		It("returns false after Close", func() {
			pool.Close()
			Expect(pool.Enqueue(Job{})).To(BeFalse())
		})
	})

	It("drains queued jobs on Close", func() {
		for range 3 {
			Expect(pool.Enqueue(Job{Records: catalog})).To(BeTrue())
		}
		pool.Close()
		Expect(fake.buildCount()).To(Equal(3))
	})
})
