package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"pictor/internal/services"
	"pictor/internal/testsupport"
)

type fakeObject struct {
	data        []byte
	contentType string
	metadata    map[string]*string
}

// fakeS3 implements the handful of S3 calls the client makes against an
// in-memory bucket.
type fakeS3 struct {
	s3iface.S3API
	objects map[string]*fakeObject
	copies  int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string]*fakeObject)}
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.StringValue(in.Key)] = &fakeObject{
		data:        data,
		contentType: aws.StringValue(in.ContentType),
		metadata:    in.Metadata,
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	obj, ok := f.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "no such key", nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(obj.data))}, nil
}

func (f *fakeS3) HeadObjectWithContext(_ aws.Context, in *s3.HeadObjectInput, _ ...request.Option) (*s3.HeadObjectOutput, error) {
	obj, ok := f.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New("NotFound", "not found", nil)
	}
	out := &s3.HeadObjectOutput{Metadata: obj.metadata}
	if obj.contentType != "" {
		out.ContentType = aws.String(obj.contentType)
	}
	return out, nil
}

func (f *fakeS3) ListObjectsV2PagesWithContext(_ aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.StringValue(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	// Hand keys back unsorted to prove the client sorts.
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	page := &s3.ListObjectsV2Output{}
	for _, k := range keys {
		page.Contents = append(page.Contents, &s3.Object{Key: aws.String(k)})
	}
	fn(page, true)
	return nil
}

func (f *fakeS3) CopyObjectWithContext(_ aws.Context, in *s3.CopyObjectInput, _ ...request.Option) (*s3.CopyObjectOutput, error) {
	obj, ok := f.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "no such key", nil)
	}
	if aws.StringValue(in.MetadataDirective) == s3.MetadataDirectiveReplace {
		obj.metadata = in.Metadata
	}
	f.copies++
	return &s3.CopyObjectOutput{}, nil
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestUploadAndExists(t *testing.T) {
	fake := newFakeS3()
	client := NewWithAPI("derivatives", fake)
	ctx := context.Background()

	path := writeTemp(t, "doc.pdf", "%PDF-1.4")
	meta := map[string]string{"width": "100", "height": "80"}
	if err := client.Upload(ctx, path, "pdfs/doc", "application/pdf", meta); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	obj := fake.objects["pdfs/doc"]
	if obj == nil {
		t.Fatal("object not stored")
	}
	if obj.contentType != "application/pdf" {
		t.Errorf("content type = %q", obj.contentType)
	}
	if aws.StringValue(obj.metadata["width"]) != "100" {
		t.Errorf("metadata = %v", obj.metadata)
	}

	ok, err := client.Exists(ctx, "pdfs/doc")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
	ok, err = client.Exists(ctx, "pdfs/other")
	if err != nil || ok {
		t.Fatalf("Exists(missing) = %v, %v", ok, err)
	}
}

func TestListSortsKeys(t *testing.T) {
	fake := newFakeS3()
	for _, k := range []string{"images/a_0002", "images/a_0001", "images/a_0010", "pdfs/a"} {
		fake.objects[k] = &fakeObject{}
	}
	client := NewWithAPI("derivatives", fake)

	keys, err := client.List(context.Background(), "images/a")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"images/a_0001", "images/a_0002", "images/a_0010"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
}

func TestDownloadMissingObject(t *testing.T) {
	client := NewWithAPI("derivatives", newFakeS3())
	err := client.Download(context.Background(), "images/nope", filepath.Join(t.TempDir(), "out"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want not-found", err)
	}
}

func TestDimensionsFromMetadata(t *testing.T) {
	fake := newFakeS3()
	fake.objects["images/a_0001"] = &fakeObject{
		metadata: map[string]*string{
			// The SDK canonicalizes metadata keys on the wire.
			"Width":  aws.String("2480"),
			"Height": aws.String("3508"),
		},
	}
	client := NewWithAPI("derivatives", fake)

	w, h, err := client.Dimensions(context.Background(), "images/a_0001")
	if err != nil {
		t.Fatalf("Dimensions: %v", err)
	}
	if w != 2480 || h != 3508 {
		t.Fatalf("got %dx%d", w, h)
	}
	if fake.copies != 0 {
		t.Errorf("metadata hit should not rewrite the object")
	}
}

func TestDimensionsMeasuresAndCaches(t *testing.T) {
	jp2Path := filepath.Join(t.TempDir(), "page.jp2")
	testsupport.WriteJP2(t, jp2Path, 640, 480)
	data, err := os.ReadFile(jp2Path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	fake := newFakeS3()
	fake.objects["images/a_0001.jp2"] = &fakeObject{data: data, contentType: "image/jp2"}
	client := NewWithAPI("derivatives", fake)
	ctx := context.Background()

	w, h, err := client.Dimensions(ctx, "images/a_0001.jp2")
	if err != nil {
		t.Fatalf("Dimensions: %v", err)
	}
	if w != 640 || h != 480 {
		t.Fatalf("got %dx%d", w, h)
	}
	if fake.copies != 1 {
		t.Fatalf("copies = %d, want metadata write-back", fake.copies)
	}

	obj := fake.objects["images/a_0001.jp2"]
	if aws.StringValue(obj.metadata["width"]) != "640" || aws.StringValue(obj.metadata["height"]) != "480" {
		t.Fatalf("cached metadata = %v", obj.metadata)
	}

	// Second lookup is served from metadata.
	if _, _, err := client.Dimensions(ctx, "images/a_0001.jp2"); err != nil {
		t.Fatalf("Dimensions (cached): %v", err)
	}
	if fake.copies != 1 {
		t.Errorf("copies = %d after cached lookup", fake.copies)
	}
}

func TestDimensionsMissingObject(t *testing.T) {
	client := NewWithAPI("derivatives", newFakeS3())
	_, _, err := client.Dimensions(context.Background(), "images/none")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want not-found", err)
	}
}
