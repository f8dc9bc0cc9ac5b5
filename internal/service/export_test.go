package service

func (s *AssignmentService) categoryCandidates(categoryID int64) []int64 {
	return s.index.Candidates(categoryID)
}
