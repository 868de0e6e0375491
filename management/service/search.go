// Copyright 2025 The Fluxa Authors, Inc.
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

package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmreur/Fluxa/internal/log"
	"github.com/xmreur/Fluxa/management/aggregate"
	"github.com/xmreur/Fluxa/management/model"
	"github.com/xmreur/Fluxa/management/repository"
	"github.com/xmreur/Fluxa/pkg/fxerrors"
	"golang.org/x/sync/errgroup"
)

// ErrSuperseded is returned by a search that finished after a newer search of
// the same session had started. Its results are dropped.
var ErrSuperseded = errors.New("search superseded by a newer query")

var searchSuperseded = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "fluxa_search_superseded_total",
	Help: "Searches whose results were dropped because a newer query had started.",
})

func init() {
	prometheus.MustRegister(searchSuperseded)
}

// Searcher runs spotlight searches. Every user gets one session, so a newer
// query of a user supersedes their older ones without touching anybody else's.
type Searcher struct {
	log *log.Logger
	*base
	sessions sync.Map // user id -> *SearchSession
}

func NewSearcher(b *base) *Searcher {
	return &Searcher{
		log:  log.GetLogger("search"),
		base: b,
	}
}

// Session returns the search session of the actor.
func (s *Searcher) Session(actor Actor) *SearchSession {
	if v, ok := s.sessions.Load(actor.ID); ok {
		return v.(*SearchSession)
	}
	v, _ := s.sessions.LoadOrStore(actor.ID, &SearchSession{searcher: s, actor: actor})
	return v.(*SearchSession)
}

// Search runs query in the actor's session.
func (s *Searcher) Search(ctx context.Context, actor Actor, query string) (aggregate.Results, error) {
	return s.Session(actor).Search(ctx, query)
}

// SearchSession orders one user's searches by a generation token.
type SearchSession struct {
	searcher *Searcher
	actor    Actor
	gen      atomic.Uint64

	mu          sync.Mutex
	shownGen    uint64
	shownQuery  string
	shownResult aggregate.Results

	// beforeCommit runs after the fetch and before the staleness check.
	beforeCommit func(query string)
}

// Search fetches the material matching query and keeps the result unless a
// newer search started in the meantime, in which case ErrSuperseded is returned.
func (ss *SearchSession) Search(ctx context.Context, query string) (aggregate.Results, error) {
	token := ss.gen.Add(1)

	var results aggregate.Results
	minLength := ss.searcher.searchMinLength
	if aggregate.ShortQuery(query, minLength) {
		results = aggregate.TextSearch(aggregate.Corpus{}, query, minLength)
	} else {
		corpus, err := ss.searcher.corpus(ctx, ss.actor, query)
		if err != nil {
			return aggregate.Results{}, err
		}
		results = aggregate.TextSearch(*corpus, query, minLength)
	}

	if ss.beforeCommit != nil {
		ss.beforeCommit(query)
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()
	if token != ss.gen.Load() || token < ss.shownGen {
		searchSuperseded.Inc()
		ss.searcher.log.Verbosef("search %q of %s superseded", query, ss.actor.ID)
		return aggregate.Results{}, ErrSuperseded
	}
	ss.shownGen, ss.shownQuery, ss.shownResult = token, query, results
	return results, nil
}

// Latest returns the query and results of the newest search that was kept.
func (ss *SearchSession) Latest() (string, aggregate.Results) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.shownQuery, ss.shownResult
}

// corpus loads the four categories concurrently, scoped to what the actor can
// see: their projects and teams, the people sharing a team with them and the
// issues they created or are assigned to.
func (s *Searcher) corpus(ctx context.Context, actor Actor, query string) (*aggregate.Corpus, error) {
	var (
		corpus = &aggregate.Corpus{}
		limit  = repository.Limit(aggregate.MaxPerCategory)
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		ids, err := s.repos.Members.ContainerIDs(ctx, model.ContainerProject, actor.ID)
		if err != nil {
			return err
		}
		corpus.Projects, err = s.repos.Projects.ListByIDs(ctx, ids, repository.WithKeyword(query, "name", "description"), limit)
		return err
	})
	eg.Go(func() error {
		ids, err := s.repos.Members.ContainerIDs(ctx, model.ContainerTeam, actor.ID)
		if err != nil {
			return err
		}
		corpus.Teams, err = s.repos.Teams.ListByIDs(ctx, ids, repository.WithKeyword(query, "name", "description"), limit)
		return err
	})
	eg.Go(func() error {
		teamIDs, err := s.repos.Members.ContainerIDs(ctx, model.ContainerTeam, actor.ID)
		if err != nil {
			return err
		}
		userIDs, err := s.repos.Members.UserIDs(ctx, model.ContainerTeam, teamIDs)
		if err != nil {
			return err
		}
		others := userIDs[:0]
		for _, id := range userIDs {
			if id != actor.ID {
				others = append(others, id)
			}
		}
		corpus.Users, err = s.repos.Profiles.ListByIDs(ctx, others, repository.WithKeyword(query, "username", "email"), limit)
		return err
	})
	eg.Go(func() error {
		var err error
		corpus.Issues, err = s.repos.Issues.ListForUser(ctx, actor.ID, repository.WithKeyword(query, "title", "description"), limit)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fxerrors.Remote(err)
	}
	return corpus, nil
}
