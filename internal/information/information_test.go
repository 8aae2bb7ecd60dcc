package information

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/squidquam/internal/quam"
)

func labWithDrive(t *testing.T, ids map[string]any) (*Lab, string) {
	t.Helper()
	drive := t.TempDir()
	lab := &Lab{
		NetworkDrives: []string{filepath.Join(drive, "not-mounted"), drive},
		SubjectDB:     "subject_ids.json",
	}
	if ids != nil {
		b, err := json.Marshal(ids)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(drive, "subject_ids.json"), b, 0o644))
	}
	return lab, drive
}

func TestNew_DefaultsWithoutDrive(t *testing.T) {
	info := New()
	info.Lab = &Lab{NetworkDrives: []string{filepath.Join(t.TempDir(), "missing")}}

	assert.Equal(t, "", info.UserName)
	assert.Equal(t, "", info.StatePath)
	assert.Equal(t, "#./default_data_path", info.DataPath.Reference())

	_, err := info.DataPath.Get(info)
	require.ErrorIs(t, err, ErrNetworkDriveNotFound)
	_, err = info.CalibrationDBPath.Get(info)
	require.ErrorIs(t, err, ErrNetworkDriveNotFound)
}

func TestDerivedPaths(t *testing.T) {
	lab, drive := labWithDrive(t, map[string]any{"D7": "S042", "D8": 17})
	info := New()
	info.Lab = lab
	info.DeviceName = "D7"
	info.ProjectName = "transmons"

	got, err := info.DataPath.Get(info)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(drive, "data", "transmons", "S042_D7"), got)

	cal, err := info.CalibrationDBPath.Get(info)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(got, "calibration_db"), cal)

	info.DeviceName = "D8"
	id, err := info.SubjectID()
	require.NoError(t, err)
	assert.Equal(t, "17", id)
}

func TestExplicitPathsWin(t *testing.T) {
	info := New()
	info.Lab = &Lab{}
	info.DataPath.Set("/data/here")

	cal, err := info.CalibrationDBPath.Get(info)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data/here", "calibration_db"), cal)
}

func TestSubjectErrors(t *testing.T) {
	lab, _ := labWithDrive(t, nil)
	info := New()
	info.Lab = lab
	info.DeviceName = "D1"

	_, err := info.SubjectID()
	require.ErrorIs(t, err, ErrSubjectDBNotFound)

	lab, _ = labWithDrive(t, map[string]any{"other": "S1"})
	info.Lab = lab
	_, err = info.DataPath.Get(info)
	require.ErrorIs(t, err, ErrSubjectNotFound)
}

func TestPrintInfo(t *testing.T) {
	info := New()
	info.UserName = "Jacob"
	info.UserKUTag = "abc123"
	info.DeviceName = "D7"
	info.FridgeName = "Blue"

	var buf bytes.Buffer
	require.NoError(t, info.PrintInfo(&buf))
	out := buf.String()
	assert.Contains(t, out, "Jacob (abc123)")
	assert.Contains(t, out, "D7")
	assert.Contains(t, out, "Blue")
}

func TestJSON_PersistsReferences(t *testing.T) {
	info := New()
	info.UserName = "Jacob"
	raw, err := json.Marshal(info)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"data_path":"#./default_data_path"`)
	assert.NotContains(t, string(raw), "Lab")

	loaded := New()
	require.NoError(t, json.Unmarshal(raw, loaded))
	assert.Equal(t, "Jacob", loaded.UserName)
	assert.Equal(t, info.CalibrationDBPath.Reference(), loaded.CalibrationDBPath.Reference())

	var _ quam.Component = loaded
}
