/*-
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package fanout

// Results holds every outcome of a batch in completion order.
type Results[S, V any] struct {
	Outcomes  []Outcome[S, V]
	Submitted int
}

// Wait consumes the batch until it closes and returns the gathered results.
func (b *Batch[S, V]) Wait() *Results[S, V] {
	return Collect(b.C, b.Submitted)
}

// Collect drains ch, keeping outcomes in the order they arrive.
func Collect[S, V any](ch <-chan Outcome[S, V], submitted int) *Results[S, V] {
	r := &Results[S, V]{Submitted: submitted}

	for o := range ch {
		r.Outcomes = append(r.Outcomes, o)
	}

	return r
}

// Successes returns the successful outcomes in completion order.
func (r *Results[S, V]) Successes() []Outcome[S, V] {
	return r.filter(true)
}

// Failures returns the failed outcomes in completion order.
func (r *Results[S, V]) Failures() []Outcome[S, V] {
	return r.filter(false)
}

// Dropped is the number of tasks abandoned at the deadline.
func (r *Results[S, V]) Dropped() int {
	return r.Submitted - len(r.Outcomes)
}

func (r *Results[S, V]) filter(ok bool) []Outcome[S, V] {
	out := make([]Outcome[S, V], 0, len(r.Outcomes))

	for _, o := range r.Outcomes {
		if o.OK() == ok {
			out = append(out, o)
		}
	}

	return out
}
