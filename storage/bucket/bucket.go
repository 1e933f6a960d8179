/*
	Package bucket implements a store on top of a gocloud.dev blob bucket so
	segmentations can live in memory, on local disk, in Google Cloud Storage,
	or in S3-compatible object stores.
*/
package bucket

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/janelia-flyem/segvol/segvol"
	"github.com/janelia-flyem/segvol/storage"

	"github.com/blang/semver"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"
	"gocloud.dev/gcp"
)

func init() {
	ver, err := semver.Make("0.1.0")
	if err != nil {
		segvol.Errorf("Unable to make semver in bucket: %v\n", err)
	}
	e := Engine{"bucket", "Cloud blob bucket (mem, file, gs, s3, vast)", ver}
	storage.RegisterEngine(e)
}

// --- Engine Implementation ------

type Engine struct {
	name   string
	desc   string
	semver semver.Version
}

func (e Engine) GetName() string {
	return e.name
}

func (e Engine) GetDescription() string {
	return e.desc
}

func (e Engine) GetSemVer() semver.Version {
	return e.semver
}

func (e Engine) String() string {
	return fmt.Sprintf("%s [%s]", e.name, e.semver)
}

// NewStore returns a bucket store.  The passed Config must contain a "ref" string.
func (e Engine) NewStore(config storage.StoreConfig) (storage.Store, bool, error) {
	ref, found, err := config.GetString("ref")
	if err != nil {
		return nil, false, err
	}
	if !found || ref == "" {
		return nil, false, fmt.Errorf("%q must be specified for bucket configuration", "ref")
	}
	s, err := Open(context.Background(), ref)
	if err != nil {
		return nil, false, err
	}
	return s, false, nil
}

// OpenBucket returns a blob.Bucket for the given reference.
// The reference should be of the form:
//
//	mem://
//	file:///<directory>
//	s3://<bucketname>/<prefix>
//	vast://<endpoint>/<bucketname>
//	gs://<bucketname>
//	<bucketname>  (Google Cloud Storage with default credentials)
func OpenBucket(ctx context.Context, ref string) (bucket *blob.Bucket, err error) {
	switch {
	case strings.HasPrefix(ref, "mem://"), strings.HasPrefix(ref, "file://"), strings.HasPrefix(ref, "gs://"):
		bucket, err = blob.OpenBucket(ctx, ref)
		if err != nil {
			segvol.Errorf("Can't open bucket reference @ %q: %v\n", ref, err)
			return nil, err
		}

	case strings.HasPrefix(ref, "s3://"):
		// This relies on the non-GCS-specific blob API and requires that the user:
		// A: Have set up AWS credentials in ways gocloud can find them
		// B: Have set the AWS_REGION environment variable
		pathpart := strings.TrimPrefix(ref, "s3://")
		parts := strings.SplitN(pathpart, "/", 2)
		bucket, err = blob.OpenBucket(ctx, "s3://"+parts[0])
		if err != nil {
			segvol.Errorf("Can't open bucket reference @ %q: %v\n", ref, err)
			return nil, err
		}
		if len(parts) == 2 && parts[1] != "" {
			bucket = blob.PrefixedBucket(bucket, strings.TrimSuffix(parts[1], "/")+"/")
		}

	case strings.HasPrefix(ref, "vast://"):
		// VAST S3-compatible storage of form "vast://<endpoint>/<bucket>".
		// AWS_REGION must be set but is ignored, and AWS_SHARED_CREDENTIALS_FILE
		// gives the access keys.
		refParts := strings.SplitN(strings.TrimPrefix(ref, "vast://"), "/", 2)
		if len(refParts) != 2 {
			return nil, fmt.Errorf("vast ref must be of form 'vast://<endpoint>/<bucket>'")
		}
		url := fmt.Sprintf("s3://%s?endpoint=%s&s3ForcePathStyle=true", refParts[1], refParts[0])
		bucket, err = blob.OpenBucket(ctx, url)
		if err != nil {
			segvol.Errorf("Can't open bucket reference @ %q: %v\n", ref, err)
			return nil, err
		}

	default:
		// Default to Google Store authentication.
		creds, err := gcp.DefaultCredentials(ctx)
		if err != nil {
			return nil, err
		}
		client, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
		if err != nil {
			return nil, err
		}
		bucket, err = gcsblob.OpenBucket(ctx, client, ref, nil)
		if err != nil {
			segvol.Errorf("Can't open bucket reference @ %q: %v\n", ref, err)
			return nil, err
		}
	}
	return bucket, nil
}

// Store is a storage.Store over a blob bucket.
type Store struct {
	ref    string
	bucket *blob.Bucket
}

// Open returns a store for the bucket reference.
func Open(ctx context.Context, ref string) (*Store, error) {
	bucket, err := OpenBucket(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &Store{ref: ref, bucket: bucket}, nil
}

func (s *Store) String() string {
	return fmt.Sprintf("bucket @ %s", s.ref)
}

func (s *Store) Close() error {
	return s.bucket.Close()
}

func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	return s.bucket.WriteAll(ctx, name, data, nil)
}

func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := s.bucket.ReadAll(ctx, name)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil, fmt.Errorf("%q in %s: %w", name, s, storage.ErrNotFound)
	}
	return data, err
}

func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	return s.bucket.Exists(ctx, name)
}

func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.bucket.Delete(ctx, name)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil
	}
	return err
}

func (s *Store) Names(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	iter := s.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if !obj.IsDir {
			names = append(names, obj.Key)
		}
	}
	sort.Strings(names)
	return names, nil
}
