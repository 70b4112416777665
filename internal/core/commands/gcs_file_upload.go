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
	"fmt"
	"log/slog"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/storage"

	"github.com/jaycherian/gcp-go-story-reel/internal/cloud"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/cor"
	"github.com/jaycherian/gcp-go-story-reel/internal/core/model"
)

// GCSFileUpload copies the finished video to a bucket and attaches a signed
// download link to the result. It only runs when a bucket is configured.
type GCSFileUpload struct {
	cor.BaseCommand
	client      *storage.Client
	iamClient   *credentials.IamCredentialsClient
	bucket      string
	signerEmail string
	expires     time.Duration
}

func NewGCSFileUpload(
	name string,
	client *storage.Client,
	iamClient *credentials.IamCredentialsClient,
	bucket string,
	signerEmail string,
	expires time.Duration) *GCSFileUpload {
	if expires <= 0 {
		expires = 15 * time.Minute
	}
	return &GCSFileUpload{
		BaseCommand: *cor.NewBaseCommand(name),
		client:      client,
		iamClient:   iamClient,
		bucket:      bucket,
		signerEmail: signerEmail,
		expires:     expires,
	}
}

func (c *GCSFileUpload) IsExecutable(context cor.Context) bool {
	if c.client == nil || c.bucket == "" || context == nil || context.GetContext() == nil {
		return false
	}
	_, ok := context.Get(ResultParam).(*model.RenderResult)
	return ok
}

func (c *GCSFileUpload) Execute(context cor.Context) {
	result := context.Get(ResultParam).(*model.RenderResult)

	objectName := fmt.Sprintf("%s/%s", result.ID, result.FileName)
	object, err := cloud.UploadFile(context.GetContext(), c.client, c.bucket, objectName, result.OutputPath, "video/mp4")
	if err != nil {
		c.Fail(context, err)
		return
	}

	url, err := cloud.SignedURL(context.GetContext(), c.client, c.iamClient, c.signerEmail, object, c.expires)
	if err != nil {
		// The upload itself worked; hand out the object URI instead.
		slog.WarnContext(context.GetContext(), "failed to sign video URL", "object", object.URI(), "error", err)
		url = object.URI()
	}
	result.RemoteURL = url
	slog.InfoContext(context.GetContext(), "video uploaded", "object", object.URI())

	c.Succeed(context)
	context.Add(c.GetOutputParam(), result)
}
