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

package utils

import (
	"testing"

	"github.com/xmreur/Fluxa/pkg/fxerrors"
)

type sample struct {
	Name     string `validate:"required,max=5"`
	Email    string `validate:"required,email"`
	Priority *int   `validate:"omitempty,min=1,max=5"`
	Kind     string `validate:"omitempty,oneof=bug task"`
}

func TestValidateStruct(t *testing.T) {
	ok := 3
	bad := 9

	tests := []struct {
		name string
		in   sample
		want string
	}{
		{"valid", sample{Name: "ab", Email: "a@b.co", Priority: &ok}, ""},
		{"missing", sample{}, "name is required, email is required"},
		{"bounds", sample{Name: "abcdefg", Email: "a@b.co", Priority: &bad}, "name must be at most 5, priority must be at most 5"},
		{"email", sample{Name: "a", Email: "nope"}, "email must be a valid email"},
		{"oneof", sample{Name: "a", Email: "a@b.co", Kind: "epic"}, "kind must be one of bug task"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.in)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if !fxerrors.IsKind(err, fxerrors.KindValidation) {
				t.Fatalf("err = %v, want validation", err)
			}
			if fxerrors.UserMessage(err) != tt.want {
				t.Fatalf("message = %q, want %q", fxerrors.UserMessage(err), tt.want)
			}
		})
	}
}
