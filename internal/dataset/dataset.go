// Package dataset loads the question-pair corpora and provides the
// cross-validation split used for out-of-fold training.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Train CSV column names, in file order.
var trainHeader = []string{"id", "qid1", "qid2", "question1", "question2", "is_duplicate"}

// Test CSV column names, in file order.
var testHeader = []string{"test_id", "question1", "question2"}

// TrainRecord is one labeled question pair.
type TrainRecord struct {
	ID          int64
	QID1        int64
	QID2        int64
	Question1   string
	Question2   string
	IsDuplicate int
}

// TestRecord is one unlabeled question pair.
type TestRecord struct {
	TestID    int64
	Question1 string
	Question2 string
}

// LoadTrain reads the training corpus.
//
// Expected format (Kaggle question-pairs):
//
//	id,qid1,qid2,question1,question2,is_duplicate
//	0,1,2,"What is ...","How can ...",0
//
// Question text may contain quoted commas and newlines; encoding/csv handles
// both.
func LoadTrain(path string) ([]TrainRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open train dataset: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.ReuseRecord = true

	if err := checkHeader(reader, trainHeader); err != nil {
		return nil, fmt.Errorf("train dataset %s: %w", path, err)
	}

	var records []TrainRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("train dataset %s: %w", path, err)
		}

		rec := TrainRecord{Question1: row[3], Question2: row[4]}
		if rec.ID, err = strconv.ParseInt(row[0], 10, 64); err != nil {
			return nil, fmt.Errorf("train dataset %s line %d: invalid id: %w", path, line, err)
		}
		if rec.QID1, err = strconv.ParseInt(row[1], 10, 64); err != nil {
			return nil, fmt.Errorf("train dataset %s line %d: invalid qid1: %w", path, line, err)
		}
		if rec.QID2, err = strconv.ParseInt(row[2], 10, 64); err != nil {
			return nil, fmt.Errorf("train dataset %s line %d: invalid qid2: %w", path, line, err)
		}
		if rec.IsDuplicate, err = strconv.Atoi(row[5]); err != nil {
			return nil, fmt.Errorf("train dataset %s line %d: invalid is_duplicate: %w", path, line, err)
		}
		if rec.IsDuplicate != 0 && rec.IsDuplicate != 1 {
			return nil, fmt.Errorf("train dataset %s line %d: is_duplicate out of range: %d",
				path, line, rec.IsDuplicate)
		}
		records = append(records, rec)
	}
	return records, nil
}

// LoadTest reads the test corpus (test_id,question1,question2).
func LoadTest(path string) ([]TestRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open test dataset: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.ReuseRecord = true

	if err := checkHeader(reader, testHeader); err != nil {
		return nil, fmt.Errorf("test dataset %s: %w", path, err)
	}

	var records []TestRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("test dataset %s: %w", path, err)
		}

		rec := TestRecord{Question1: row[1], Question2: row[2]}
		if rec.TestID, err = strconv.ParseInt(row[0], 10, 64); err != nil {
			return nil, fmt.Errorf("test dataset %s line %d: invalid test_id: %w", path, line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func checkHeader(reader *csv.Reader, want []string) error {
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) != len(want) {
		return fmt.Errorf("header has %d columns, want %d", len(header), len(want))
	}
	for i, name := range want {
		if header[i] != name {
			return fmt.Errorf("header column %d is %q, want %q", i, header[i], name)
		}
	}
	return nil
}

// Labels extracts the is_duplicate column as float64 targets.
func Labels(records []TrainRecord) []float64 {
	labels := make([]float64, len(records))
	for i, rec := range records {
		labels[i] = float64(rec.IsDuplicate)
	}
	return labels
}

// StackQuestions returns all first questions followed by all second
// questions: 2N documents for N pairs, with pair i occupying rows i and N+i.
// This is the "stack" combine the SVD feature pipeline operates on.
func StackQuestions[R TrainRecord | TestRecord](records []R) []string {
	docs := make([]string, 2*len(records))
	for i, rec := range records {
		switch r := any(rec).(type) {
		case TrainRecord:
			docs[i] = r.Question1
			docs[len(records)+i] = r.Question2
		case TestRecord:
			docs[i] = r.Question1
			docs[len(records)+i] = r.Question2
		}
	}
	return docs
}
