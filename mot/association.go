package mot

import (
	"math"
	"sort"

	hungarian "github.com/arthurkushman/go-hungarian"
)

// associationResult is the outcome of one frame's bipartite matching.
// Indices refer to the caller's track and detection slices.
type associationResult struct {
	// matches holds {trackIndex, detectionIndex} pairs.
	matches [][2]int
	// unmatchedTracks are track indices no detection was assigned to.
	unmatchedTracks []int
	// unmatchedDetections are detection indices no track was assigned to.
	unmatchedDetections []int
}

const iouTieEpsilon = 1e-9

// associateDetectionsToTracks matches predicted track boxes to detection
// boxes by solving the optimal assignment over an IoU matrix. Pairs whose
// IoU falls under iouThreshold are infeasible and end up unmatched.
// Given identical inputs the result is deterministic.
func associateDetectionsToTracks(predicted, detected []Rectangle, iouThreshold float64) associationResult {
	numTracks := len(predicted)
	numDetections := len(detected)
	if numTracks == 0 || numDetections == 0 {
		return associationResult{
			matches:             [][2]int{},
			unmatchedTracks:     indexRange(numTracks),
			unmatchedDetections: indexRange(numDetections),
		}
	}

	iouMatrix := make([][]float64, numTracks)
	for i := range predicted {
		row := make([]float64, numDetections)
		for j := range detected {
			row[j] = IoU(predicted[i], detected[j])
		}
		iouMatrix[i] = row
	}

	// The solver wants a square matrix; pad with zero IoU so dummy
	// assignments never survive the threshold filter below.
	paddedSize := maxInt(numTracks, numDetections)
	paddedMatrix := iouMatrix
	if numTracks != numDetections {
		paddedMatrix = make([][]float64, paddedSize)
		for i := 0; i < paddedSize; i++ {
			paddedMatrix[i] = make([]float64, paddedSize)
		}
		for i := 0; i < numTracks; i++ {
			copy(paddedMatrix[i], iouMatrix[i])
		}
	}

	// Maximizing total IoU is the same assignment as minimizing total
	// (1 - IoU) cost over the feasible pairs.
	assignments := hungarian.SolveMax(paddedMatrix)

	matches := make([][2]int, 0, minInt(numTracks, numDetections))
	for trackIdx, rowMap := range assignments {
		if trackIdx >= numTracks {
			continue
		}
		for detIdx := range rowMap {
			if detIdx >= numDetections {
				continue
			}
			if iouMatrix[trackIdx][detIdx] >= iouThreshold {
				matches = append(matches, [2]int{trackIdx, detIdx})
			}
			break
		}
	}
	// The solver returns a map; fix the order before any tie refinement so
	// equal inputs always produce equal outputs.
	sort.Slice(matches, func(i, j int) bool { return matches[i][0] < matches[j][0] })

	matches = refineEqualCostTies(matches, iouMatrix, iouThreshold)

	matchedTracks := make(map[int]struct{}, len(matches))
	matchedDetections := make(map[int]struct{}, len(matches))
	for _, m := range matches {
		matchedTracks[m[0]] = struct{}{}
		matchedDetections[m[1]] = struct{}{}
	}

	result := associationResult{matches: matches}
	for i := 0; i < numTracks; i++ {
		if _, ok := matchedTracks[i]; !ok {
			result.unmatchedTracks = append(result.unmatchedTracks, i)
		}
	}
	for j := 0; j < numDetections; j++ {
		if _, ok := matchedDetections[j]; !ok {
			result.unmatchedDetections = append(result.unmatchedDetections, j)
		}
	}
	return result
}

// refineEqualCostTies resolves near-symmetric configurations: when swapping
// the detections of two matched pairs leaves the total IoU unchanged, the
// variant with the larger minimum per-pair IoU wins. This keeps identities
// stable when two objects' boxes approach mirror positions.
func refineEqualCostTies(matches [][2]int, iouMatrix [][]float64, iouThreshold float64) [][2]int {
	for pass := 0; pass < len(matches); pass++ {
		swapped := false
		for i := 0; i < len(matches); i++ {
			for j := i + 1; j < len(matches); j++ {
				ti, di := matches[i][0], matches[i][1]
				tj, dj := matches[j][0], matches[j][1]
				current := iouMatrix[ti][di] + iouMatrix[tj][dj]
				crossed := iouMatrix[ti][dj] + iouMatrix[tj][di]
				if math.Abs(current-crossed) > iouTieEpsilon {
					continue
				}
				if iouMatrix[ti][dj] < iouThreshold || iouMatrix[tj][di] < iouThreshold {
					continue
				}
				currentMin := math.Min(iouMatrix[ti][di], iouMatrix[tj][dj])
				crossedMin := math.Min(iouMatrix[ti][dj], iouMatrix[tj][di])
				if crossedMin > currentMin+iouTieEpsilon {
					matches[i][1], matches[j][1] = dj, di
					swapped = true
				}
			}
		}
		if !swapped {
			break
		}
	}
	return matches
}

func indexRange(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
