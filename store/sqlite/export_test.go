package sqlite

import "context"

// ExecForTest runs raw SQL so tests can plant rows the store would never write.
func ExecForTest(s *Store, query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}
