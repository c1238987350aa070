// Copyright 2026 The Graphcache Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package watch

import (
	"context"
	"sync"
)

// recomputeJob is one unit of work for the recompute pool: re-project
// registration reg and stash the outcome at results[index], so workers
// can run concurrently while the broadcaster still fires callbacks
// back in registration order afterward.
type recomputeJob struct {
	index int
	reg   *registration
}

type recomputeOutcome struct {
	changed bool
	err     error
}

// recomputePool fans a batch of watch recomputations out across a
// small worker pool and collects results indexed by registration
// order, so that concurrent computation never reorders the eventual
// callback firing.
type recomputePool struct {
	broadcaster *Broadcaster
}

func (p recomputePool) run(ctx context.Context, jobs []recomputeJob, numWorkers int) []recomputeOutcome {
	results := make([]recomputeOutcome, len(jobs))
	if len(jobs) == 0 {
		return results
	}
	if numWorkers > len(jobs) {
		numWorkers = len(jobs)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	jobsChan := make(chan recomputeJob)
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			for job := range jobsChan {
				select {
				case <-ctx.Done():
					results[job.index] = recomputeOutcome{err: ctx.Err()}

					continue
				default:
				}
				changed, err := p.broadcaster.recompute(job.reg)
				results[job.index] = recomputeOutcome{changed: changed, err: err}
			}
		}()
	}

	for i, job := range jobs {
		job.index = i
		jobsChan <- job
	}
	close(jobsChan)
	wg.Wait()

	return results
}
