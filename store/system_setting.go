package store

import "context"

// SystemSettingSchemaVersion is the key holding the applied schema version.
const SystemSettingSchemaVersion = "schema_version"

// SystemSetting is a key/value instance setting.
type SystemSetting struct {
	Name  string
	Value string
}

// FindSystemSetting is the find condition for system settings.
type FindSystemSetting struct {
	Name *string
}

func (s *Store) UpsertSystemSetting(ctx context.Context, upsert *SystemSetting) (*SystemSetting, error) {
	return s.driver.UpsertSystemSetting(ctx, upsert)
}

func (s *Store) ListSystemSettings(ctx context.Context, find *FindSystemSetting) ([]*SystemSetting, error) {
	return s.driver.ListSystemSettings(ctx, find)
}

// GetSchemaVersion returns the applied schema version, or "" when unset.
func (s *Store) GetSchemaVersion(ctx context.Context) (string, error) {
	name := SystemSettingSchemaVersion
	list, err := s.driver.ListSystemSettings(ctx, &FindSystemSetting{Name: &name})
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "", nil
	}
	return list[0].Value, nil
}
