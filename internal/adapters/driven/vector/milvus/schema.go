package milvus

import (
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// Field names of the chunk collection.
const (
	fieldID         = "id"
	fieldVector     = "vector"
	fieldDocumentID = "document_id"
	fieldSource     = "source"
	fieldTitle      = "title"
	fieldSection    = "section"
	fieldPosition   = "position"
	fieldCharStart  = "char_start"
	fieldCharEnd    = "char_end"
	fieldContent    = "content"
)

// outputFields are returned with every search hit.
var outputFields = []string{
	fieldID, fieldDocumentID, fieldSource, fieldTitle, fieldSection,
	fieldPosition, fieldCharStart, fieldCharEnd, fieldContent,
}

func varchar(name string, maxLength int) *entity.Field {
	return &entity.Field{
		Name:       name,
		DataType:   entity.FieldTypeVarChar,
		TypeParams: map[string]string{"max_length": strconv.Itoa(maxLength)},
	}
}

// ChunkSchema returns the collection schema for chunk vectors.
func ChunkSchema(collection string, dimensions int) *entity.Schema {
	id := varchar(fieldID, 512)
	id.PrimaryKey = true

	return &entity.Schema{
		CollectionName: collection,
		Description:    "Document chunks for retrieval",
		Fields: []*entity.Field{
			id,
			{
				Name:       fieldVector,
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{"dim": strconv.Itoa(dimensions)},
			},
			varchar(fieldDocumentID, 512),
			varchar(fieldSource, 512),
			varchar(fieldTitle, 1024),
			varchar(fieldSection, 256),
			{Name: fieldPosition, DataType: entity.FieldTypeInt64},
			{Name: fieldCharStart, DataType: entity.FieldTypeInt64},
			{Name: fieldCharEnd, DataType: entity.FieldTypeInt64},
			varchar(fieldContent, 65535),
		},
	}
}
