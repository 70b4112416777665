// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"encoding/json"
	"fmt"

	"github.com/jaycherian/gcp-go-story-reel/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
)

// GenerateMessageReader decodes a queued generation message into a
// *model.GenerateRequest.
type GenerateMessageReader struct {
	cor.BaseCommand
}

func NewGenerateMessageReader(name string) *GenerateMessageReader {
	return &GenerateMessageReader{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *GenerateMessageReader) Execute(context cor.Context) {
	in, ok := context.Get(c.GetInputParam()).(string)
	if !ok {
		c.Fail(context, fmt.Errorf("%w: message body is not a string", model.ErrInvalidRequest))
		return
	}

	out := &model.GenerateRequest{}
	if err := json.Unmarshal([]byte(in), out); err != nil {
		c.Fail(context, fmt.Errorf("%w: failed to unmarshal generation message: %v", model.ErrInvalidRequest, err))
		return
	}
	out.ApplyDefaults()
	if err := out.Validate(); err != nil {
		c.Fail(context, err)
		return
	}

	c.Succeed(context)
	context.Add(c.GetOutputParam(), out)
}
