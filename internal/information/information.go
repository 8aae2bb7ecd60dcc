// Package information holds the lab metadata of a device configuration: who
// runs it, which device and fridge it describes, and where its data lives.
//
// Data and calibration paths are derived from the lab's network drive and
// the subject-ID database kept on it. Neither is touched until one of the
// derived paths is read, so an Information can be built and saved on a
// machine without the drive mounted.
package information

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/vk/squidquam/internal/fsutil"
	"github.com/vk/squidquam/internal/quam"
)

var (
	// ErrNetworkDriveNotFound is returned when none of the lab's network
	// drive candidates is mounted.
	ErrNetworkDriveNotFound = errors.New("information: network drive not found")
	// ErrSubjectDBNotFound is returned when the subject-ID database file is
	// missing from the network drive.
	ErrSubjectDBNotFound = errors.New("information: subject ID database not found")
	// ErrSubjectNotFound is returned when the device has no entry in the
	// subject-ID database.
	ErrSubjectNotFound = errors.New("information: device not found in subject ID database")
)

// Lab describes where the shared network drive may be mounted and where the
// subject-ID database sits on it.
type Lab struct {
	NetworkDrives []string
	SubjectDB     string
}

// DefaultLab is used by Information values with no Lab of their own.
var DefaultLab = Lab{
	NetworkDrives: []string{"/mnt/squid", "/Volumes/squid", `Z:\`},
	SubjectDB:     filepath.Join("Database", "subject_ids.json"),
}

func init() {
	quam.Register("information.Information", func() quam.Component { return New() })
}

// Information is the lab metadata component.
type Information struct {
	quam.Base
	UserName          string             `json:"user_name"`
	UserKUTag         string             `json:"user_ku_tag"`
	DeviceName        string             `json:"device_name"`
	FridgeName        string             `json:"fridge_name"`
	ProjectName       string             `json:"project_name"`
	StatePath         string             `json:"state_path"`
	DataPath          quam.Value[string] `json:"data_path"`
	CalibrationDBPath quam.Value[string] `json:"calibration_db_path"`

	// Lab overrides DefaultLab. It is not persisted.
	Lab *Lab `json:"-"`
}

// New returns an Information whose data and calibration paths follow the
// lab naming convention.
func New() *Information {
	return &Information{
		DataPath:          quam.Ref[string]("#./default_data_path"),
		CalibrationDBPath: quam.Ref[string]("#./default_calibration_db_path"),
	}
}

func (i *Information) lab() Lab {
	if i.Lab != nil {
		return *i.Lab
	}
	return DefaultLab
}

// NetworkDrive returns the first mounted network drive candidate.
func (i *Information) NetworkDrive() (string, error) {
	lab := i.lab()
	drive, ok := fsutil.FirstExistingDir(lab.NetworkDrives)
	if !ok {
		return "", fmt.Errorf("%w: tried %v", ErrNetworkDriveNotFound, lab.NetworkDrives)
	}
	return drive, nil
}

// SubjectID looks the device up in the subject-ID database.
func (i *Information) SubjectID() (string, error) {
	drive, err := i.NetworkDrive()
	if err != nil {
		return "", err
	}
	path := filepath.Join(drive, i.lab().SubjectDB)
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrSubjectDBNotFound, path)
	}
	if err != nil {
		return "", err
	}

	var ids map[string]any
	if err := json.Unmarshal(b, &ids); err != nil {
		return "", fmt.Errorf("failed to parse subject ID database %s: %w", path, err)
	}
	id, ok := ids[i.DeviceName]
	if !ok || id == nil {
		return "", fmt.Errorf("%w: %q", ErrSubjectNotFound, i.DeviceName)
	}
	return fmt.Sprint(id), nil
}

// DefaultDataPath is <drive>/data/<project>/<subject>_<device>.
func (i *Information) DefaultDataPath() (string, error) {
	drive, err := i.NetworkDrive()
	if err != nil {
		return "", err
	}
	subject, err := i.SubjectID()
	if err != nil {
		return "", err
	}
	return filepath.Join(drive, "data", i.ProjectName, subject+"_"+i.DeviceName), nil
}

// DefaultCalibrationDBPath is the calibration_db directory below the data path.
func (i *Information) DefaultCalibrationDBPath() (string, error) {
	data, err := i.DataPath.Get(i)
	if err != nil {
		return "", err
	}
	return filepath.Join(data, "calibration_db"), nil
}

func (i *Information) Property(name string) (any, bool, error) {
	var (
		v   string
		err error
	)
	switch name {
	case "default_data_path":
		v, err = i.DefaultDataPath()
	case "default_calibration_db_path":
		v, err = i.DefaultCalibrationDBPath()
	case "network_drive":
		v, err = i.NetworkDrive()
	case "subject_id":
		v, err = i.SubjectID()
	default:
		return nil, false, nil
	}
	return v, true, err
}

var bold = lipgloss.NewStyle().Bold(true)

// PrintInfo writes a short summary of who is running which device.
func (i *Information) PrintInfo(w io.Writer) error {
	user := i.UserName
	if i.UserKUTag != "" {
		user = fmt.Sprintf("%s (%s)", i.UserName, i.UserKUTag)
	}
	rows := [][2]string{
		{"User", user},
		{"Device", i.DeviceName},
		{"Fridge", i.FridgeName},
		{"Project", i.ProjectName},
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%s: %s\n", r[0], bold.Render(r[1])); err != nil {
			return err
		}
	}
	return nil
}
