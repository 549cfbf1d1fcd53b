package utils

import (
	"bytes"
	"fmt"

	storage "github.com/supabase-community/storage-go"
)

// StorageUploader puts generated files into a Supabase Storage bucket.
type StorageUploader struct {
	client *storage.Client
	bucket string
}

func NewStorageUploader(supabaseURL, supabaseKey, bucket string) *StorageUploader {
	return &StorageUploader{
		client: storage.NewClient(supabaseURL+"/storage/v1", supabaseKey, nil),
		bucket: bucket,
	}
}

// Upload stores data under folder/name (overwriting) and returns its public URL.
func (u *StorageUploader) Upload(folder, name, contentType string, data []byte) (string, error) {
	objectPath := name
	if folder != "" {
		objectPath = fmt.Sprintf("%s/%s", folder, name)
	}

	upsert := true
	options := storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}
	if _, err := u.client.UploadFile(u.bucket, objectPath, bytes.NewReader(data), options); err != nil {
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}

	publicURL := u.client.GetPublicUrl(u.bucket, objectPath)
	return publicURL.SignedURL, nil
}
