package manager

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/i-SAS/isas-base/storage"
	"github.com/i-SAS/isas-base/types"
)

// ImportStaticData loads the whole static model from the given table system.
// Free-form tables (sensor data, model components, connection maps) always
// come from the datadrive.
func (m *Manager) ImportStaticData(ctx context.Context, system string) (*types.StaticData, error) {
	if _, err := m.tableStore(system); err != nil {
		return nil, err
	}

	sd := types.NewStaticData()
	var err error
	if sd.ServiceMetadata, err = m.importServiceMetadata(ctx, system); err != nil {
		return nil, err
	}
	if sd.StructuralModels, err = m.importStructuralModels(ctx, system); err != nil {
		return nil, err
	}
	if sd.Sensors, err = m.importSensors(ctx, system); err != nil {
		return nil, err
	}
	if sd.TimeSeriesMetadata, err = m.importTimeSeriesMetadata(ctx, system); err != nil {
		return nil, err
	}
	if sd.InstanceMetadata, err = m.importInstanceMetadata(ctx, system); err != nil {
		return nil, err
	}
	return sd, nil
}

func (m *Manager) importServiceMetadata(ctx context.Context, system string) (map[string]types.ServiceMetadata, error) {
	rows, err := m.loadTable(ctx, tableServiceMetadata, system)
	if err != nil {
		return nil, err
	}
	out := make(map[string]types.ServiceMetadata, len(rows))
	for _, row := range rows {
		out[rowString(row, "service_name")] = types.ServiceMetadata{}
	}
	return out, nil
}

func (m *Manager) importStructuralModels(ctx context.Context, system string) (map[string]types.StructuralModel, error) {
	rows, err := m.loadTable(ctx, tableStructuralModelMetadata, system)
	if err != nil {
		return nil, err
	}

	out := make(map[string]types.StructuralModel, len(rows))
	for _, row := range rows {
		name := rowString(row, "structural_model_name")
		model, err := types.NewStructuralModel(rowString(row, "model_type"))
		if err != nil {
			return nil, fmt.Errorf("structural model %q: %w", name, err)
		}
		for _, component := range model.ComponentNames() {
			path := filepath.Join(m.datadrive, dirStructuralModels,
				fmt.Sprintf("%s_%s.csv", name, component))
			frame, err := m.files.LoadFrame(path)
			if err != nil {
				return nil, err
			}
			if frame == nil {
				continue
			}
			if err := model.SetComponent(component, frame); err != nil {
				return nil, fmt.Errorf("structural model %q: %w", name, err)
			}
		}
		out[name] = model
	}
	return out, nil
}

func (m *Manager) importSensors(ctx context.Context, system string) (map[string]types.Sensor, error) {
	rows, err := m.loadTable(ctx, tableSensorMetadata, system)
	if err != nil {
		return nil, err
	}
	modelRows, err := m.loadTable(ctx, tableSensorsStructuralModels, system)
	if err != nil {
		return nil, err
	}
	modelsBySensor := groupRows(modelRows, "sensor_name")

	out := make(map[string]types.Sensor, len(rows))
	for _, row := range rows {
		name := rowString(row, "sensor_name")
		data, err := m.files.LoadFrame(filepath.Join(m.datadrive, dirSensors, name+".csv"))
		if err != nil {
			return nil, err
		}
		info, err := m.structuralModelInfo(modelsBySensor[name], dirSensorConnections, name)
		if err != nil {
			return nil, err
		}
		out[name] = types.Sensor{
			Locational:          rowBool(row, "locational"),
			Directional:         rowBool(row, "directional"),
			StructuralModelInfo: info,
			Data:                data,
		}
	}
	return out, nil
}

func (m *Manager) importTimeSeriesMetadata(ctx context.Context, system string) (map[string]types.TimeSeriesMetadata, error) {
	rows, err := m.loadTable(ctx, tableTimeSeriesMetadata, system)
	if err != nil {
		return nil, err
	}
	modelRows, err := m.loadTable(ctx, tableTimeSeriesStructuralModels, system)
	if err != nil {
		return nil, err
	}
	sensorRows, err := m.loadTable(ctx, tableTimeSeriesSensors, system)
	if err != nil {
		return nil, err
	}
	modelsByData := groupRows(modelRows, "data_name")
	sensorsByData := groupRows(sensorRows, "data_name")

	out := make(map[string]types.TimeSeriesMetadata, len(rows))
	for _, row := range rows {
		name := rowString(row, "data_name")
		info, err := m.structuralModelInfo(modelsByData[name], dirTimeSeriesConnections, name)
		if err != nil {
			return nil, err
		}
		sensorInfo := map[string]types.SensorInfo{}
		for _, sensorRow := range sensorsByData[name] {
			sensorInfo[rowString(sensorRow, "sensor_name")] = types.SensorInfo{
				ID: rowInt64(sensorRow, "id"),
			}
		}
		out[name] = types.TimeSeriesMetadata{
			CoordSys:            rowString(row, "coord_sys"),
			SensorInfo:          sensorInfo,
			StructuralModelInfo: info,
		}
	}
	return out, nil
}

func (m *Manager) importInstanceMetadata(ctx context.Context, system string) (map[string]types.InstanceMetadata, error) {
	rows, err := m.loadTable(ctx, tableInstanceMetadata, system)
	if err != nil {
		return nil, err
	}
	inputRows, err := m.loadTable(ctx, tableInstanceInputs, system)
	if err != nil {
		return nil, err
	}
	outputRows, err := m.loadTable(ctx, tableInstanceOutputs, system)
	if err != nil {
		return nil, err
	}
	inputsByInstance := groupRows(inputRows, "instance_name")
	outputsByInstance := groupRows(outputRows, "instance_name")

	out := make(map[string]types.InstanceMetadata, len(rows))
	for _, row := range rows {
		name := rowString(row, "instance_name")
		inputs := map[string]types.InstanceInputMetadata{}
		for _, r := range inputsByInstance[name] {
			inputs[rowString(r, "data_name")] = types.InstanceInputMetadata{ID: rowInt64(r, "id")}
		}
		outputs := map[string]types.InstanceOutputMetadata{}
		for _, r := range outputsByInstance[name] {
			outputs[rowString(r, "data_name")] = types.InstanceOutputMetadata{ID: rowInt64(r, "id")}
		}
		out[name] = types.InstanceMetadata{
			ModelName:      rowString(row, "model_name"),
			ServiceName:    rowString(row, "service_name"),
			InputMetadata:  inputs,
			OutputMetadata: outputs,
		}
	}
	return out, nil
}

// structuralModelInfo assembles the model bindings of one owner (a sensor or
// a time-series), loading each connection map from the datadrive.
func (m *Manager) structuralModelInfo(rows []storage.Row, dir, owner string) (map[string]types.StructuralModelInfo, error) {
	out := make(map[string]types.StructuralModelInfo, len(rows))
	for _, row := range rows {
		modelName := rowString(row, "structural_model_name")
		connection, err := m.files.LoadFrame(filepath.Join(m.datadrive, dir,
			fmt.Sprintf("%s_%s.csv", owner, modelName)))
		if err != nil {
			return nil, err
		}
		out[modelName] = types.StructuralModelInfo{
			ID:            rowInt64(row, "id"),
			ComponentName: rowString(row, "component_name"),
			Connection:    connection,
		}
	}
	return out, nil
}

// ExportStaticData writes the static model into the given table system. The
// order is fixed so that referenced records exist before their references:
// services, structural models, sensors, time-series metadata, instances.
func (m *Manager) ExportStaticData(ctx context.Context, sd *types.StaticData, system string) error {
	if sd == nil {
		return nil
	}
	if _, err := m.tableStore(system); err != nil {
		return err
	}

	var merr *multierror.Error
	merr = multierror.Append(merr, m.exportServiceMetadata(ctx, sd.ServiceMetadata, system))
	merr = multierror.Append(merr, m.exportStructuralModels(ctx, sd.StructuralModels, system))
	merr = multierror.Append(merr, m.exportSensors(ctx, sd.Sensors, system))
	merr = multierror.Append(merr, m.exportTimeSeriesMetadata(ctx, sd.TimeSeriesMetadata, system))
	merr = multierror.Append(merr, m.exportInstanceMetadata(ctx, sd.InstanceMetadata, system))
	return merr.ErrorOrNil()
}

func (m *Manager) exportServiceMetadata(ctx context.Context, services map[string]types.ServiceMetadata, system string) error {
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]storage.Row, 0, len(names))
	for _, name := range names {
		rows = append(rows, storage.Row{"service_name": name})
	}
	return m.saveTable(ctx, tableServiceMetadata, rows, system, storage.SaveSync)
}

func (m *Manager) exportStructuralModels(ctx context.Context, models map[string]types.StructuralModel, system string) error {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]storage.Row, 0, len(names))
	for _, name := range names {
		model := models[name]
		rows = append(rows, storage.Row{
			"structural_model_name": name,
			"model_type":            model.ModelType(),
		})
		for _, component := range model.ComponentNames() {
			frame, ok := model.Component(component)
			if !ok || frame == nil {
				continue
			}
			path := filepath.Join(m.datadrive, dirStructuralModels,
				fmt.Sprintf("%s_%s.csv", name, component))
			if err := m.files.SaveFrame(path, frame); err != nil {
				return err
			}
		}
	}
	return m.saveTable(ctx, tableStructuralModelMetadata, rows, system, storage.SaveSync)
}

func (m *Manager) exportSensors(ctx context.Context, sensors map[string]types.Sensor, system string) error {
	names := make([]string, 0, len(sensors))
	for name := range sensors {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]storage.Row, 0, len(names))
	var modelRows []storage.Row
	for _, name := range names {
		sensor := sensors[name]
		rows = append(rows, storage.Row{
			"sensor_name": name,
			"locational":  sensor.Locational,
			"directional": sensor.Directional,
		})
		if sensor.Data != nil {
			if err := m.files.SaveFrame(filepath.Join(m.datadrive, dirSensors, name+".csv"), sensor.Data); err != nil {
				return err
			}
		}
		bindings, err := m.exportStructuralModelInfo(sensor.StructuralModelInfo, dirSensorConnections, name, "sensor_name")
		if err != nil {
			return err
		}
		modelRows = append(modelRows, bindings...)
	}

	if err := m.saveTable(ctx, tableSensorMetadata, rows, system, storage.SaveSync); err != nil {
		return err
	}
	return m.saveSplitByID(ctx, tableSensorsStructuralModels, modelRows, system)
}

func (m *Manager) exportTimeSeriesMetadata(ctx context.Context, metadata map[string]types.TimeSeriesMetadata, system string) error {
	names := make([]string, 0, len(metadata))
	for name := range metadata {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]storage.Row, 0, len(names))
	var modelRows, sensorRows []storage.Row
	for _, name := range names {
		md := metadata[name]
		rows = append(rows, storage.Row{
			"data_name": name,
			"coord_sys": md.CoordSys,
		})
		bindings, err := m.exportStructuralModelInfo(md.StructuralModelInfo, dirTimeSeriesConnections, name, "data_name")
		if err != nil {
			return err
		}
		modelRows = append(modelRows, bindings...)

		sensorNames := make([]string, 0, len(md.SensorInfo))
		for sensorName := range md.SensorInfo {
			sensorNames = append(sensorNames, sensorName)
		}
		sort.Strings(sensorNames)
		for _, sensorName := range sensorNames {
			sensorRows = append(sensorRows, storage.Row{
				"id":          md.SensorInfo[sensorName].ID,
				"data_name":   name,
				"sensor_name": sensorName,
			})
		}
	}

	if err := m.saveTable(ctx, tableTimeSeriesMetadata, rows, system, storage.SaveSync); err != nil {
		return err
	}
	if err := m.saveSplitByID(ctx, tableTimeSeriesStructuralModels, modelRows, system); err != nil {
		return err
	}
	return m.saveSplitByID(ctx, tableTimeSeriesSensors, sensorRows, system)
}

func (m *Manager) exportInstanceMetadata(ctx context.Context, instances map[string]types.InstanceMetadata, system string) error {
	names := make([]string, 0, len(instances))
	for name := range instances {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]storage.Row, 0, len(names))
	var inputRows, outputRows []storage.Row
	for _, name := range names {
		md := instances[name]
		rows = append(rows, storage.Row{
			"instance_name": name,
			"model_name":    md.ModelName,
			"service_name":  md.ServiceName,
		})

		inputNames := make([]string, 0, len(md.InputMetadata))
		for dataName := range md.InputMetadata {
			inputNames = append(inputNames, dataName)
		}
		sort.Strings(inputNames)
		for _, dataName := range inputNames {
			inputRows = append(inputRows, storage.Row{
				"id":            md.InputMetadata[dataName].ID,
				"instance_name": name,
				"data_name":     dataName,
			})
		}

		outputNames := make([]string, 0, len(md.OutputMetadata))
		for dataName := range md.OutputMetadata {
			outputNames = append(outputNames, dataName)
		}
		sort.Strings(outputNames)
		for _, dataName := range outputNames {
			outputRows = append(outputRows, storage.Row{
				"id":            md.OutputMetadata[dataName].ID,
				"instance_name": name,
				"data_name":     dataName,
			})
		}
	}

	if err := m.saveTable(ctx, tableInstanceMetadata, rows, system, storage.SaveSync); err != nil {
		return err
	}
	if err := m.saveSplitByID(ctx, tableInstanceInputs, inputRows, system); err != nil {
		return err
	}
	return m.saveSplitByID(ctx, tableInstanceOutputs, outputRows, system)
}

func (m *Manager) exportStructuralModelInfo(info map[string]types.StructuralModelInfo, dir, owner, ownerKey string) ([]storage.Row, error) {
	modelNames := make([]string, 0, len(info))
	for name := range info {
		modelNames = append(modelNames, name)
	}
	sort.Strings(modelNames)

	rows := make([]storage.Row, 0, len(modelNames))
	for _, modelName := range modelNames {
		binding := info[modelName]
		if binding.Connection != nil {
			path := filepath.Join(m.datadrive, dir, fmt.Sprintf("%s_%s.csv", owner, modelName))
			if err := m.files.SaveFrame(path, binding.Connection); err != nil {
				return nil, err
			}
		}
		rows = append(rows, storage.Row{
			"id":                    binding.ID,
			ownerKey:                owner,
			"structural_model_name": modelName,
			"component_name":        binding.ComponentName,
		})
	}
	return rows, nil
}
