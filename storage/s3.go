package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"printscout/config"
	"printscout/models"
	"printscout/utils"
)

// maxImageBytes caps a single fetched image.
const maxImageBytes = 25 << 20

// S3Relocator mirrors source-hosted images into an S3-compatible bucket
// under deterministic keys and returns the public URLs.
type S3Relocator struct {
	client     *s3.S3
	bucket     string
	publicBase string
	httpClient *http.Client
	logger     *utils.Logger
}

// NewS3Relocator builds a relocator from config. A custom endpoint makes
// it work against any S3-compatible store.
func NewS3Relocator(cfg *config.Config, logger *utils.Logger) (*S3Relocator, error) {
	awsCfg := aws.NewConfig().WithRegion(cfg.S3Region)
	if cfg.S3Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.S3Endpoint).WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("s3: session: %w", err)
	}

	publicBase := strings.TrimRight(cfg.S3PublicURL, "/")
	if publicBase == "" {
		publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	}

	return &S3Relocator{
		client:     s3.New(sess),
		bucket:     cfg.S3Bucket,
		publicBase: publicBase,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}, nil
}

// Relocate copies the record's thumbnail and carousel images. The first
// failed image aborts the whole request so the caller never persists a
// record with partial media.
func (r *S3Relocator) Relocate(ctx context.Context, req RelocationRequest) (*RelocationResult, error) {
	base := keyBase(req.Platform, req.RecordID)
	suffix := keySuffix(req.Title, req.FirstTag)
	result := &RelocationResult{}

	if req.ThumbnailURL != "" {
		key := fmt.Sprintf("%s/thumbnail/%s", base, suffix)
		publicURL, err := r.copyOne(ctx, req.ThumbnailURL, key)
		if err != nil {
			return nil, fmt.Errorf("s3: thumbnail: %w", err)
		}
		result.ThumbnailURL = publicURL
	}

	for i, pair := range req.Images {
		bigKey := fmt.Sprintf("%s/images/big/%d_%s", base, i, suffix)
		big, err := r.copyOne(ctx, pair.Full, bigKey)
		if err != nil {
			return nil, fmt.Errorf("s3: image %d (big): %w", i, err)
		}

		small := big
		if pair.Thumb != "" && pair.Thumb != pair.Full {
			smallKey := fmt.Sprintf("%s/images/small/%d_%s", base, i, suffix)
			small, err = r.copyOne(ctx, pair.Thumb, smallKey)
			if err != nil {
				return nil, fmt.Errorf("s3: image %d (small): %w", i, err)
			}
		}

		result.Images = append(result.Images, models.ImagePair{Full: big, Thumb: small})
	}

	return result, nil
}

// copyOne fetches srcURL and PUTs it under key with the source's content
// type and a public-read ACL, returning the public URL.
func (r *S3Relocator) copyOne(ctx context.Context, srcURL, key string) (string, error) {
	body, contentType, err := r.fetch(ctx, srcURL)
	if err != nil {
		return "", err
	}

	key += extensionFor(contentType, srcURL)

	_, err = r.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		ACL:         aws.String(s3.ObjectCannedACLPublicRead),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}

	r.logger.Debug("[s3] uploaded %s (%d bytes)", key, len(body))
	return r.publicBase + "/" + key, nil
}

func (r *S3Relocator) fetch(ctx context.Context, srcURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", srcURL, err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", srcURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch %s: status %d", srcURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", srcURL, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return body, contentType, nil
}

func keyBase(platform, recordID string) string {
	return sanitize(platform) + "/" + recordID
}

func keySuffix(title, firstTag string) string {
	suffix := sanitize(title)
	if tag := sanitize(firstTag); tag != "" {
		suffix += "_" + tag
	}
	if suffix == "" {
		suffix = "image"
	}
	return suffix
}

var nonKeyChars = regexp.MustCompile(`[^a-z0-9]+`)

// sanitize makes a string safe for an object key segment: lowercase,
// non-alphanumerics collapsed to single dashes, length-capped.
func sanitize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonKeyChars.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 60 {
		s = strings.Trim(s[:60], "-")
	}
	return s
}

// extensionFor picks the object extension from the source content type,
// falling back to the URL path, then to .jpg.
func extensionFor(contentType, srcURL string) string {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}

	if u, err := url.Parse(srcURL); err == nil {
		if ext := path.Ext(u.Path); ext != "" && len(ext) <= 5 {
			return strings.ToLower(ext)
		}
	}

	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".jpg"
}
