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

package coordinator

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func ids(c *Collection[item]) []string {
	var out []string
	for _, it := range c.Items() {
		out = append(out, it.ID)
	}
	return out
}

func TestCollectionUndo(t *testing.T) {
	c := newItems(map[string]string{"a": "owner", "b": "member", "c": "member"})
	if err := c.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	t.Run("remove then undo keeps position", func(t *testing.T) {
		undo := c.Remove("b")
		if !reflect.DeepEqual(ids(c), []string{"a", "c"}) {
			t.Fatalf("after remove = %v", ids(c))
		}
		undo()
		if !reflect.DeepEqual(ids(c), []string{"a", "b", "c"}) {
			t.Fatalf("after undo = %v", ids(c))
		}
	})

	t.Run("put new then undo", func(t *testing.T) {
		undo := c.Put(item{ID: "d"})
		if c.Len() != 4 {
			t.Fatalf("len = %d", c.Len())
		}
		undo()
		if _, ok := c.Get("d"); ok || c.Len() != 3 {
			t.Fatal("new item survived undo")
		}
	})

	t.Run("replace then undo", func(t *testing.T) {
		undo := c.Put(item{ID: "c", Role: "admin"})
		undo()
		if got, _ := c.Get("c"); got.Role != "member" {
			t.Fatalf("c = %+v", got)
		}
	})

	t.Run("remove absent is a no-op", func(t *testing.T) {
		c.Remove("zzz")()
		if c.Len() != 3 {
			t.Fatalf("len = %d", c.Len())
		}
	})
}

func TestCollectionReloadFailureKeepsState(t *testing.T) {
	fail := false
	c := NewCollection(func(i item) string { return i.ID }, func(ctx context.Context) ([]item, error) {
		if fail {
			return nil, errors.New("down")
		}
		return []item{{ID: "a"}}, nil
	})
	if err := c.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	fail = true
	if err := c.Reload(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if c.Len() != 1 || !c.Loaded() {
		t.Fatal("failed reload wiped the view")
	}
}
