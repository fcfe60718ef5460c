// Package export writes snapshot views as CSV for spreadsheet consumers.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"vrm-observer/pkg/models"
)

// Column sets of the exported files, in output order
var (
	CameraColumns = []string{
		"vrmId", "name", "address", "recording", "blockMounted",
		"fw", "connTime", "allocatedBlocks", "primaryTarget", "maxBitrate",
	}
	VRMColumns = []string{"vrmId", "totalGiB", "availableGiB", "emptyGiB", "protectedGiB", "targets", "cameras"}
)

// WriteCameras writes one row per enriched camera. Missing numbers are written as empty cells.
func WriteCameras(w io.Writer, cameras []models.EnrichedCamera) error {
	rows := make([][]string, 0, len(cameras))
	for _, c := range cameras {
		rows = append(rows, []string{
			c.VRMID,
			c.Name,
			c.Address,
			c.Recording,
			c.BlockMounted,
			c.Firmware,
			c.ConnTime,
			formatOptional(c.AllocatedBlocks),
			c.PrimaryTarget,
			formatOptional(c.MaxBitrate),
		})
	}
	return writeAll(w, CameraColumns, rows)
}

// WriteVRMs writes one capacity row per appliance
func WriteVRMs(w io.Writer, stats []models.VRMStats) error {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.VRMID,
			formatNumber(s.TotalGiB),
			formatNumber(s.AvailableGiB),
			formatNumber(s.EmptyGiB),
			formatNumber(s.ProtectedGiB),
			strconv.Itoa(s.Targets),
			strconv.Itoa(s.Cameras),
		})
	}
	return writeAll(w, VRMColumns, rows)
}

func writeAll(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing CSV rows: %w", err)
	}
	return nil
}

// formatNumber prints the shortest exact representation ("4000", "12.5")
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatNumber(*v)
}
