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

package notify

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/xmreur/Fluxa/management/database"
	"github.com/xmreur/Fluxa/management/model"
	"github.com/xmreur/Fluxa/management/repository"
	"github.com/xmreur/Fluxa/pkg/loop"
)

type recordSender struct {
	mu   sync.Mutex
	sent []string
	body string
}

func (r *recordSender) Send(to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, to+"|"+subject)
	r.body = body
	return nil
}

func TestNotifierIssueAssigned(t *testing.T) {
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	store := repository.NewNotificationRepository(db)
	l := loop.NewTaskLoop(10)
	l.Start(context.Background())
	n := NewNotifier(l, store)

	bob := "bob"
	alice := "alice"
	n.IssueAssigned(&model.Issue{ProjectID: "p1", Title: "Crash", AssignedTo: &bob}, "alice")
	// assigning yourself posts nothing
	n.IssueAssigned(&model.Issue{ProjectID: "p1", Title: "Mine", AssignedTo: &alice}, "alice")
	n.IssueAssigned(&model.Issue{ProjectID: "p1", Title: "Nobody"}, "alice")
	l.Stop()

	notes, err := store.ListForUser(context.Background(), "bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].Read || !strings.Contains(notes[0].Description, "Crash") {
		t.Fatalf("notes = %+v", notes)
	}
	if all, _ := store.Count(context.Background()); all != 1 {
		t.Fatalf("total notifications = %d", all)
	}
}

func TestMailerInviteCreated(t *testing.T) {
	l := loop.NewTaskLoop(10)
	l.Start(context.Background())
	sender := &recordSender{}
	m := NewMailer(l, sender, "http://fluxa.test")

	inv := model.NewInvite(model.TeamContainer("t1"), "bob@example.com", model.RoleAdmin, "alice")
	m.InviteCreated(InviteMail{Invite: inv, Name: "Core", Inviter: "Alice"})
	l.Stop()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.sent) != 1 || sender.sent[0] != "bob@example.com|You have been invited to Core" {
		t.Fatalf("sent = %v", sender.sent)
	}
	for _, want := range []string{"Alice", `team "Core"`, "as admin", "http://fluxa.test/inbox"} {
		if !strings.Contains(sender.body, want) {
			t.Errorf("body misses %q:\n%s", want, sender.body)
		}
	}
}
