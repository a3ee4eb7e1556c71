package job

import (
	"fmt"
	"path/filepath"
)

// job for the encoder: one original frame and its processed pair
type JobEnc struct {
	FrameNum  int
	Original  string
	Processed string
}

// job for the decoder: one frame of the dat file and its output image
type JobDec struct {
	FrameNum int
	File     string
}

// Pairs matches two sorted frame lists by position, not by name.
// Both lists must have the same length.
func Pairs(original, processed []string) []JobEnc {
	jobs := make([]JobEnc, len(original))
	for i := range original {
		jobs[i] = JobEnc{
			FrameNum:  i,
			Original:  original[i],
			Processed: processed[i],
		}
	}
	return jobs
}

func (j *JobEnc) Print() string {
	return fmt.Sprintf("Job: FrameNum: %d, Original: %s, Processed: %s", j.FrameNum, j.Original, j.Processed)
}

// NamesDiffer reports pairs whose file names are not the same,
// which usually means the two dirs are numbered differently.
func (j *JobEnc) NamesDiffer() bool {
	return filepath.Base(j.Original) != filepath.Base(j.Processed)
}

func (j *JobDec) Print() string {
	return fmt.Sprintf("Job: FrameNum: %d, File: %s", j.FrameNum, j.File)
}
