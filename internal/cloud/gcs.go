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

package cloud

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
)

// GCSObject identifies an object in Cloud Storage.
type GCSObject struct {
	Bucket   string
	Name     string
	MIMEType string
}

// URI returns the gs:// form of the object.
func (o *GCSObject) URI() string {
	return fmt.Sprintf("gs://%s/%s", o.Bucket, o.Name)
}

// UploadFile streams the local file at path into bucket/objectName.
func UploadFile(ctx context.Context, client *storage.Client, bucket string, objectName string, path string, contentType string) (*GCSObject, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer in.Close()

	writer := client.Bucket(bucket).Object(objectName).NewWriter(ctx)
	writer.ContentType = contentType
	if written, err := io.Copy(writer, in); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("failed to copy %s to gs://%s/%s after %d bytes: %w", path, bucket, objectName, written, err)
	}
	// The object only exists once Close returns without error.
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize gs://%s/%s: %w", bucket, objectName, err)
	}
	return &GCSObject{Bucket: bucket, Name: objectName, MIMEType: contentType}, nil
}

// SignedURL returns a V4 GET URL for the object. When iamClient is set the
// URL is signed remotely with signerEmail, which lets workloads without a
// private key (Cloud Run, GKE workload identity) hand out links.
func SignedURL(ctx context.Context, client *storage.Client, iamClient *credentials.IamCredentialsClient, signerEmail string, object *GCSObject, expires time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(expires),
	}
	if iamClient != nil && signerEmail != "" {
		opts.GoogleAccessID = signerEmail
		opts.SignBytes = func(b []byte) ([]byte, error) {
			resp, err := iamClient.SignBlob(ctx, &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", signerEmail),
				Payload: b,
			})
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		}
	}
	u, err := client.Bucket(object.Bucket).SignedURL(object.Name, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).SignedURL(%q): %w", object.Bucket, object.Name, err)
	}
	return u, nil
}
