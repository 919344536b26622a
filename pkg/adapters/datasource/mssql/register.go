package mssql

import (
	"github.com/Artmann/squeal/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.Registration{
		Info: datasource.AdapterInfo{
			Type:        "sqlserver",
			DisplayName: "Microsoft SQL Server",
		},
		Factory: func(connectionInfo map[string]any) (datasource.Adapter, error) {
			cfg, err := FromMap(connectionInfo)
			if err != nil {
				return nil, err
			}
			return NewAdapter(cfg), nil
		},
	})
}
