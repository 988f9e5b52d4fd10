package plan

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hevc-convert/probe"
)

func testChecker() *Checker {
	return NewChecker(nil, zerolog.Nop())
}

func mainVideo(codec string, w, h int, rate string) probe.Stream {
	return probe.Stream{
		CodecName:  codec,
		CodecType:  probe.TypeVideo,
		PixFmt:     "yuv420p",
		Width:      w,
		Height:     h,
		RFrameRate: rate,
		Tags:       map[string]string{"DURATION-eng": "00:42:00.000"},
	}
}

func testDoc(streams ...probe.Stream) *probe.Document {
	return &probe.Document{
		Streams: streams,
		Format:  probe.Format{BitRate: "2500000"},
		Size:    2 << 30,
	}
}

func TestClassifyValidDocument(t *testing.T) {
	doc := testDoc(
		mainVideo("h264", 1280, 720, "25/1"),
		probe.Stream{CodecName: "aac", CodecType: probe.TypeAudio, SampleRate: "48000", ChannelLayout: "stereo"},
		probe.Stream{CodecName: "subrip", CodecType: probe.TypeSubtitle},
	)

	p, err := testChecker().Classify(doc)
	require.NoError(t, err)
	assert.True(t, p.Valid)
	assert.Equal(t, "h264", p.MainCodec)
	assert.Equal(t, int64(2500000), p.MainBitrate)
	assert.Equal(t, 25.0, p.MainFPS)
	assert.Equal(t, "1280x720", p.MainResolution)
	assert.Equal(t, "00:42:00.000", p.MainDuration)
	assert.True(t, p.NeedsConvert())

	wantMain := []string{"-map", "0:v:0", "-c:v:0", "hevc_amf"}
	if diff := cmp.Diff(wantMain, p.MainArgs); diff != "" {
		t.Errorf("main fragment mismatch (-want +got):\n%s", diff)
	}
	wantCopy := []string{
		"-map", "0:a:0", "-c:a:0", "copy",
		"-map", "0:s:0", "-c:s:0", "copy",
	}
	if diff := cmp.Diff(wantCopy, p.CopyArgs); diff != "" {
		t.Errorf("copy fragment mismatch (-want +got):\n%s", diff)
	}
	assert.NotEmpty(t, p.Description)
}

func TestClassifyIncompleteBitrate(t *testing.T) {
	doc := testDoc(
		mainVideo("h264", 1280, 720, "25/1"),
		probe.Stream{CodecName: "aac", CodecType: probe.TypeAudio},
	)
	doc.Format.BitRate = ""
	doc.Size = 0 // size-based bitrate fallback yields nothing

	p, err := testChecker().Classify(doc)
	var ime *IncompleteMetadataError
	require.ErrorAs(t, err, &ime)
	assert.False(t, p.Valid)
	assert.Equal(t, "h264", p.MainCodec)
}

func TestClassifyIncompleteFPS(t *testing.T) {
	v := mainVideo("h264", 1280, 720, "")
	doc := testDoc(v, probe.Stream{CodecName: "aac", CodecType: probe.TypeAudio})

	_, err := testChecker().Classify(doc)
	var ime *IncompleteMetadataError
	require.ErrorAs(t, err, &ime)
	assert.Zero(t, ime.FPS)
}

func TestClassifyScaleBoundary(t *testing.T) {
	c := testChecker()

	// Exactly 1920x1080 must not trigger the scale+pad chain.
	p, err := c.Classify(testDoc(
		mainVideo("h264", 1920, 1080, "24/1"),
		probe.Stream{CodecName: "aac", CodecType: probe.TypeAudio},
	))
	require.NoError(t, err)
	assert.NotContains(t, p.MainArgs, "-vf")
	assert.NotContains(t, p.MainArgs, "-s")

	// One pixel over in both dimensions does.
	p, err = c.Classify(testDoc(
		mainVideo("h264", 1921, 1081, "24/1"),
		probe.Stream{CodecName: "aac", CodecType: probe.TypeAudio},
	))
	require.NoError(t, err)
	want := []string{
		"-vf", "scale=1920:-1:force_original_aspect_ratio=decrease,pad=1920:1080:(ow-iw)/2:(oh-ih)/2",
		"-map", "0:v:0", "-c:v:0", "hevc_amf",
		"-s", "1920x1080",
	}
	if diff := cmp.Diff(want, p.MainArgs); diff != "" {
		t.Errorf("scaled fragment mismatch (-want +got):\n%s", diff)
	}

	// Over in only one dimension (e.g. 1921x1080) is left alone.
	p, err = c.Classify(testDoc(
		mainVideo("h264", 1921, 1080, "24/1"),
		probe.Stream{CodecName: "aac", CodecType: probe.TypeAudio},
	))
	require.NoError(t, err)
	assert.NotContains(t, p.MainArgs, "-vf")
}

func TestClassifyFPSBoundary(t *testing.T) {
	c := testChecker()

	p, err := c.Classify(testDoc(
		mainVideo("h264", 1280, 720, "32/1"),
		probe.Stream{CodecName: "aac", CodecType: probe.TypeAudio},
	))
	require.NoError(t, err)
	assert.NotContains(t, p.MainArgs, "-vf")

	p, err = c.Classify(testDoc(
		mainVideo("h264", 1280, 720, "32.01"),
		probe.Stream{CodecName: "aac", CodecType: probe.TypeAudio},
	))
	require.NoError(t, err)
	require.Contains(t, p.MainArgs, "-vf")
	assert.Equal(t, "fps=30", p.MainArgs[1])
}

func TestClassifyCombinedFilters(t *testing.T) {
	p, err := testChecker().Classify(testDoc(
		mainVideo("h264", 4096, 2160, "60/1"),
		probe.Stream{CodecName: "aac", CodecType: probe.TypeAudio},
	))
	require.NoError(t, err)
	require.Contains(t, p.MainArgs, "-vf")
	assert.Equal(t,
		"fps=30,scale=1920:-1:force_original_aspect_ratio=decrease,pad=1920:1080:(ow-iw)/2:(oh-ih)/2",
		p.MainArgs[1])
	assert.Equal(t, "1920x1080", p.MainArgs[len(p.MainArgs)-1])
}

func TestClassifyMjpegNotMain(t *testing.T) {
	cover := probe.Stream{CodecName: "mjpeg", CodecType: probe.TypeVideo, PixFmt: "yuvj420p", Width: 600, Height: 600}
	doc := testDoc(
		cover,
		mainVideo("h264", 1280, 720, "25/1"),
		probe.Stream{CodecName: "aac", CodecType: probe.TypeAudio},
	)

	p, err := testChecker().Classify(doc)
	require.NoError(t, err)
	assert.Equal(t, "h264", p.MainCodec)
	// The cover art occupied video ordinal 0 and was dropped (pix_fmt),
	// so the main stream maps as 0:v:1.
	assert.Contains(t, p.MainArgs, "0:v:1")
	assert.NotContains(t, p.CopyArgs, "0:v:0")
}

func TestClassifySecondaryVideoPixFmt(t *testing.T) {
	doc := testDoc(
		mainVideo("h264", 1280, 720, "25/1"),
		probe.Stream{CodecName: "h264", CodecType: probe.TypeVideo, PixFmt: "yuv420p"},
		probe.Stream{CodecName: "vp9", CodecType: probe.TypeVideo, PixFmt: "yuv420p10le"},
		probe.Stream{CodecName: "aac", CodecType: probe.TypeAudio},
	)

	p, err := testChecker().Classify(doc)
	require.NoError(t, err)
	assert.Contains(t, p.CopyArgs, "0:v:1")
	// The 10-bit stream is dropped but still advances the video ordinal.
	assert.NotContains(t, p.CopyArgs, "0:v:2")
}

func TestClassifyAudioReencode(t *testing.T) {
	doc := testDoc(
		mainVideo("h264", 1280, 720, "25/1"),
		probe.Stream{CodecName: "wmav2", CodecType: probe.TypeAudio},
		probe.Stream{CodecName: "aac", CodecType: probe.TypeAudio},
	)

	p, err := testChecker().Classify(doc)
	require.NoError(t, err)
	want := []string{
		"-map", "0:a:0", "-c:a:0", "aac", "-async", "1", "-apad", "1",
		"-map", "0:a:1", "-c:a:1", "copy",
	}
	if diff := cmp.Diff(want, p.CopyArgs); diff != "" {
		t.Errorf("audio fragment mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyDropsBinData(t *testing.T) {
	doc := testDoc(
		mainVideo("h264", 1280, 720, "25/1"),
		probe.Stream{CodecName: "bin_data", CodecType: probe.TypeData},
		probe.Stream{CodecName: "aac", CodecType: probe.TypeAudio},
	)

	p, err := testChecker().Classify(doc)
	require.NoError(t, err)
	assert.True(t, p.Valid)
	assert.Len(t, p.CopyArgs, 4)
}

func TestClassifyNoStreams(t *testing.T) {
	p, err := testChecker().Classify(testDoc())
	require.NoError(t, err)
	assert.False(t, p.Valid)
	assert.False(t, p.NeedsConvert())
}

func TestNeedsConvert(t *testing.T) {
	assert.False(t, (&TranscodePlan{MainCodec: "hevc"}).NeedsConvert())
	assert.False(t, (&TranscodePlan{MainCodec: "av1"}).NeedsConvert())
	assert.True(t, (&TranscodePlan{MainCodec: "h264"}).NeedsConvert())
	assert.True(t, (&TranscodePlan{MainCodec: "mpeg4"}).NeedsConvert())
}

func TestCheckMissingFile(t *testing.T) {
	c := testChecker()
	_, err := c.Check(context.Background(), filepath.Join(t.TempDir(), "nope.mkv"))
	assert.ErrorIs(t, err, ErrNotFound)
}
