package model

import (
	"fmt"
	"sort"
)

// ClassMetrics holds precision, recall and F1 for one label.
type ClassMetrics struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Evaluation summarises predictions against known labels.
type Evaluation struct {
	Samples     int            `json:"samples"`
	Accuracy    float64        `json:"accuracy"`
	Labels      []int          `json:"labels"`
	Classes     []ClassMetrics `json:"classes"`
	MacroAvg    ClassMetrics   `json:"macro_avg"`
	WeightedAvg ClassMetrics   `json:"weighted_avg"`
	// Confusion[i][j] counts samples of true label Labels[i] predicted as Labels[j].
	Confusion [][]int `json:"confusion_matrix"`
}

// Evaluate compares predicted labels with true labels. Precision, recall or
// F1 with a zero denominator are reported as 0.
func Evaluate(yTrue, yPred []int) (Evaluation, error) {
	if len(yTrue) != len(yPred) {
		return Evaluation{}, fmt.Errorf("have %d true labels but %d predictions", len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return Evaluation{}, ErrNoSamples
	}

	labels := distinct(append(append([]int(nil), yTrue...), yPred...))
	sort.Ints(labels)
	pos := make(map[int]int, len(labels))
	for i, l := range labels {
		pos[l] = i
	}

	confusion := make([][]int, len(labels))
	for i := range confusion {
		confusion[i] = make([]int, len(labels))
	}
	correct := 0
	for i := range yTrue {
		confusion[pos[yTrue[i]]][pos[yPred[i]]]++
		if yTrue[i] == yPred[i] {
			correct++
		}
	}

	eval := Evaluation{
		Samples:   len(yTrue),
		Accuracy:  float64(correct) / float64(len(yTrue)),
		Labels:    labels,
		Confusion: confusion,
	}

	macro := ClassMetrics{Label: "macro avg"}
	weighted := ClassMetrics{Label: "weighted avg"}
	for i, l := range labels {
		tp := confusion[i][i]
		support, predicted := 0, 0
		for j := range labels {
			support += confusion[i][j]
			predicted += confusion[j][i]
		}
		m := ClassMetrics{
			Label:     fmt.Sprintf("%d", l),
			Precision: ratio(tp, predicted),
			Recall:    ratio(tp, support),
			Support:   support,
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		eval.Classes = append(eval.Classes, m)

		macro.Precision += m.Precision
		macro.Recall += m.Recall
		macro.F1 += m.F1
		w := float64(support)
		weighted.Precision += m.Precision * w
		weighted.Recall += m.Recall * w
		weighted.F1 += m.F1 * w
	}

	k := float64(len(labels))
	n := float64(len(yTrue))
	macro.Precision /= k
	macro.Recall /= k
	macro.F1 /= k
	macro.Support = len(yTrue)
	weighted.Precision /= n
	weighted.Recall /= n
	weighted.F1 /= n
	weighted.Support = len(yTrue)

	eval.MacroAvg = macro
	eval.WeightedAvg = weighted
	return eval, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
